package notify

import (
	"errors"
	"time"

	"github.com/membertools/dues/pkg/members"
)

// ReminderKind identifies which reminder template is delivered
type ReminderKind string

const (
	ReminderAnnual     ReminderKind = "annual-membership"
	ReminderFirstMonth ReminderKind = "first-month-reminder"
	ReminderMonthly    ReminderKind = "monthly-reminder"
)

// Valid reports whether the kind is a known reminder template
func (k ReminderKind) Valid() bool {
	switch k {
	case ReminderAnnual, ReminderFirstMonth, ReminderMonthly:
		return true
	}
	return false
}

var (
	// ErrInvalidInput indicates the reminder data was absent or incomplete
	ErrInvalidInput = errors.New("invalid reminder input")

	// ErrDelivery indicates the external delivery provider rejected or
	// failed the trigger call
	ErrDelivery = errors.New("delivery failed")
)

// ReminderData carries everything needed to render one reminder for one
// member. Amounts are integer cents.
type ReminderData struct {
	MembershipType members.MembershipType
	FirstName      string
	LastName       string
	Email          string

	// DueAmountCents is the blended first-month charge (first-month reminders)
	DueAmountCents int64
	// MonthlyAmountCents is the recurring charge (monthly reminders)
	MonthlyAmountCents int64
	// TotalAmountCents is the annual charge (annual reminders)
	TotalAmountCents int64

	DueDate time.Time
	Invoice *members.Invoice
}

// Recipient identifies the delivery target. The member email doubles as the
// provider subscriber identity.
type Recipient struct {
	SubscriberID string `json:"subscriberId"`
	Email        string `json:"email"`
}

// Ack is returned on successful delivery
type Ack struct {
	Message string `json:"message"`
}
