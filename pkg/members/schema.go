package members

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are applied in order by EnsureSchema
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id         TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		id               TEXT PRIMARY KEY,
		member_id        TEXT NOT NULL REFERENCES members(id),
		membership_type  TEXT NOT NULL,
		start_date       TIMESTAMPTZ NOT NULL,
		due_date         TIMESTAMPTZ NOT NULL,
		monthly_due_date TIMESTAMPTZ,
		is_first_month   BOOLEAN NOT NULL DEFAULT TRUE,
		monthly_amount   BIGINT,
		total_amount     BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_member_id ON memberships(member_id)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id            TEXT PRIMARY KEY,
		membership_id TEXT NOT NULL REFERENCES memberships(id),
		amount_cents  BIGINT NOT NULL CHECK (amount_cents >= 0),
		issue_date    TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_membership_id ON invoices(membership_id)`,
}

// EnsureSchema creates the members, memberships and invoices tables if they
// do not already exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
