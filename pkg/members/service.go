package members

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for member and membership billing operations
type Service interface {
	// Member management
	Register(ctx context.Context, req *RegisterRequest) (*Member, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context) ([]*Member, error)

	// Membership management
	GetMembership(ctx context.Context, id string) (*Membership, error)
	ListMembershipsWithMembers(ctx context.Context) ([]*Membership, error)
	SwitchToMonthly(ctx context.Context, membershipID string) (*SwitchResult, error)

	// Invoicing
	GenerateInvoice(ctx context.Context, membershipID string) (*Invoice, error)
	ListInvoices(ctx context.Context, membershipID string, limit int) ([]*Invoice, error)
}

// PostgresService implements the members Service interface using PostgreSQL
type PostgresService struct {
	db   *sql.DB
	fees Fees
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB, fees Fees) *PostgresService {
	if fees.AnnualCents <= 0 || fees.MonthlyCents <= 0 {
		fees = DefaultFees()
	}
	return &PostgresService{
		db:   db,
		fees: fees,
	}
}

const membershipColumns = `id, member_id, membership_type, start_date, due_date,
	       monthly_due_date, is_first_month, monthly_amount, total_amount,
	       created_at, updated_at`

// Register creates a new member along with their initial annual membership.
// The membership is due one year after registration.
func (s *PostgresService) Register(ctx context.Context, req *RegisterRequest) (*Member, error) {
	if req == nil || req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: first name, last name and email are required", ErrInvalidInput)
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM members WHERE email = $1`, req.Email).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("%w: member with email %s", ErrAlreadyExists, req.Email)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}

	member := &Member{
		ID:        uuid.New().String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO members (id, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		member.ID, member.FirstName, member.LastName, member.Email).
		Scan(&member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	startDate := time.Now().UTC()
	dueDate := startDate.AddDate(1, 0, 0)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memberships (id, member_id, membership_type, start_date, due_date,
		                         is_first_month, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), member.ID, MembershipTypeAnnualBasic,
		startDate, dueDate, false, s.fees.AnnualCents)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return member, nil
}

// GetMember retrieves a member by ID
func (s *PostgresService) GetMember(ctx context.Context, id string) (*Member, error) {
	member := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, created_at, updated_at
		FROM members
		WHERE id = $1`, id).
		Scan(&member.ID, &member.FirstName, &member.LastName, &member.Email,
			&member.CreatedAt, &member.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers lists all registered members ordered by registration time
func (s *PostgresService) ListMembers(ctx context.Context) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, created_at, updated_at
		FROM members
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var result []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(&member.ID, &member.FirstName, &member.LastName,
			&member.Email, &member.CreatedAt, &member.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

// GetMembership retrieves a membership by ID
func (s *PostgresService) GetMembership(ctx context.Context, id string) (*Membership, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE id = $1`, id)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: membership %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMembershipsWithMembers loads every membership joined with its owning
// member. This is the snapshot the billing reconciler iterates over.
func (s *PostgresService) ListMembershipsWithMembers(ctx context.Context) ([]*Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ms.id, ms.member_id, ms.membership_type, ms.start_date, ms.due_date,
		       ms.monthly_due_date, ms.is_first_month, ms.monthly_amount, ms.total_amount,
		       ms.created_at, ms.updated_at,
		       m.first_name, m.last_name, m.email
		FROM memberships ms
		JOIN members m ON m.id = ms.member_id
		ORDER BY ms.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var result []*Membership
	for rows.Next() {
		m := &Membership{Member: &Member{}}
		var monthlyDue sql.NullTime
		var monthlyAmount sql.NullInt64
		if err := rows.Scan(&m.ID, &m.MemberID, &m.MembershipType, &m.StartDate,
			&m.DueDate, &monthlyDue, &m.IsFirstMonth, &monthlyAmount, &m.TotalAmount,
			&m.CreatedAt, &m.UpdatedAt,
			&m.Member.FirstName, &m.Member.LastName, &m.Member.Email); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if monthlyDue.Valid {
			t := monthlyDue.Time
			m.MonthlyDueDate = &t
		}
		if monthlyAmount.Valid {
			v := monthlyAmount.Int64
			m.MonthlyAmount = &v
		}
		m.Member.ID = m.MemberID
		result = append(result, m)
	}
	return result, rows.Err()
}

// SwitchToMonthly converts a membership to monthly premium billing. The first
// ever monthly membership for a member keeps is_first_month set so the next
// invoice blends the annual bootstrap fee with the first monthly fee.
func (s *PostgresService) SwitchToMonthly(ctx context.Context, membershipID string) (*SwitchResult, error) {
	membership, err := s.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	var priorMonthly int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM memberships
		WHERE member_id = $1 AND monthly_amount IS NOT NULL`,
		membership.MemberID).Scan(&priorMonthly)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly memberships: %w", err)
	}
	isFirstMonth := priorMonthly == 0

	monthlyDueDate := membership.StartDate.AddDate(0, 1, 0)
	res, err := s.db.ExecContext(ctx, `
		UPDATE memberships
		SET monthly_amount = $1, monthly_due_date = $2, is_first_month = $3,
		    membership_type = $4, updated_at = NOW()
		WHERE id = $5`,
		s.fees.MonthlyCents, monthlyDueDate, isFirstMonth,
		MembershipTypeMonthlyPremium, membershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to switch membership to monthly: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}

	updated, err := s.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	return &SwitchResult{Affected: affected, Membership: updated}, nil
}

// GenerateInvoice computes and persists an invoice for a membership.
//
// Amount priority:
//  1. first month with a monthly amount set: total + monthly (one-time
//     blended bootstrap charge); is_first_month is cleared in the same
//     transaction as the invoice insert, so a second call charges only
//     the monthly amount
//  2. monthly amount set: monthly amount
//  3. otherwise: total amount
func (s *PostgresService) GenerateInvoice(ctx context.Context, membershipID string) (*Invoice, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE id = $1`, membershipID)
	membership, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: membership %s", ErrNotFound, membershipID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	var amount int64
	switch {
	case membership.IsFirstMonth && membership.MonthlyAmount != nil:
		amount = membership.TotalAmount + *membership.MonthlyAmount
		_, err = tx.ExecContext(ctx, `
			UPDATE memberships SET is_first_month = FALSE, updated_at = NOW()
			WHERE id = $1`, membershipID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear first month flag: %w", err)
		}
	case membership.MonthlyAmount != nil:
		amount = *membership.MonthlyAmount
	default:
		amount = membership.TotalAmount
	}

	invoice := &Invoice{
		ID:           uuid.New().String(),
		MembershipID: membershipID,
		AmountCents:  amount,
		IssueDate:    time.Now().UTC(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices (id, membership_id, amount_cents, issue_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		invoice.ID, invoice.MembershipID, invoice.AmountCents, invoice.IssueDate).
		Scan(&invoice.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoices lists invoices for a membership, newest first
func (s *PostgresService) ListInvoices(ctx context.Context, membershipID string, limit int) ([]*Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, membership_id, amount_cents, issue_date, created_at
		FROM invoices
		WHERE membership_id = $1
		ORDER BY issue_date DESC
		LIMIT $2`, membershipID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var result []*Invoice
	for rows.Next() {
		invoice := &Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.MembershipID, &invoice.AmountCents,
			&invoice.IssueDate, &invoice.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		result = append(result, invoice)
	}
	return result, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	m := &Membership{}
	var monthlyDue sql.NullTime
	var monthlyAmount sql.NullInt64
	err := row.Scan(&m.ID, &m.MemberID, &m.MembershipType, &m.StartDate, &m.DueDate,
		&monthlyDue, &m.IsFirstMonth, &monthlyAmount, &m.TotalAmount,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if monthlyDue.Valid {
		t := monthlyDue.Time
		m.MonthlyDueDate = &t
	}
	if monthlyAmount.Valid {
		v := monthlyAmount.Int64
		m.MonthlyAmount = &v
	}
	return m, nil
}
