package members

import (
	"fmt"
	"time"
)

// MembershipType represents the billing plan of a membership
type MembershipType string

const (
	MembershipTypeAnnualBasic    MembershipType = "annual_basic"
	MembershipTypeMonthlyPremium MembershipType = "monthly_premium"
)

// Member represents a registered club member
type Member struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership represents a billing relationship between a member and a plan.
// All monetary amounts are integer cents to avoid floating point rounding.
type Membership struct {
	ID             string         `json:"id"`
	MemberID       string         `json:"member_id"`
	MembershipType MembershipType `json:"membership_type"`
	StartDate      time.Time      `json:"start_date"`
	DueDate        time.Time      `json:"due_date"`
	MonthlyDueDate *time.Time     `json:"monthly_due_date,omitempty"`
	IsFirstMonth   bool           `json:"is_first_month"`
	MonthlyAmount  *int64         `json:"monthly_amount,omitempty"`
	TotalAmount    int64          `json:"total_amount"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Member is populated when loaded with its owning member
	Member *Member `json:"member,omitempty"`
}

// Invoice represents a single billing charge issued against a membership.
// Invoices are append-only; they are never updated after creation.
type Invoice struct {
	ID           string    `json:"id"`
	MembershipID string    `json:"membership_id"`
	AmountCents  int64     `json:"amount_cents"`
	IssueDate    time.Time `json:"issue_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest represents a request to register a new member
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// SwitchResult reports the outcome of switching a membership to monthly billing
type SwitchResult struct {
	Affected   int64       `json:"affected"`
	Membership *Membership `json:"membership,omitempty"`
}

// Fees holds the billing amounts applied to new memberships, in cents
type Fees struct {
	AnnualCents  int64
	MonthlyCents int64
}

// DefaultFees returns the standard club fees ($500 annual, $300 monthly)
func DefaultFees() Fees {
	return Fees{
		AnnualCents:  50000,
		MonthlyCents: 30000,
	}
}

// FormatCents renders an integer cent amount as a human-readable decimal string
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SameDay reports whether two timestamps fall on the same calendar day in UTC,
// ignoring time of day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
