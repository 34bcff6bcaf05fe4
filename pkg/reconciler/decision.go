package reconciler

import (
	"time"

	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
)

// ReminderNone means no reminder fires for a membership this pass
const ReminderNone notify.ReminderKind = ""

// Decide selects which reminder, if any, fires for a membership today.
// It is a pure function over the membership snapshot as it was loaded at
// the start of the pass, before invoice generation mutated the first-month
// flag in the store.
//
// Matching is day-granular and first match wins:
//
//  1. first month and today is exactly leadDays before the due date
//  2. past first month with a monthly due date falling today
//  3. past first month and today is exactly leadDays before the due date
//
// The reminder window is a single day, not a range: a membership missed on
// its exact reminder day gets no reminder until its next cycle.
func Decide(m *members.Membership, today time.Time, leadDays int) notify.ReminderKind {
	reminderDate := m.DueDate.AddDate(0, 0, -leadDays)

	switch {
	case m.IsFirstMonth && members.SameDay(today, reminderDate):
		return notify.ReminderFirstMonth
	case !m.IsFirstMonth && m.MonthlyDueDate != nil && members.SameDay(today, *m.MonthlyDueDate):
		return notify.ReminderMonthly
	case !m.IsFirstMonth && members.SameDay(today, reminderDate):
		return notify.ReminderAnnual
	default:
		return ReminderNone
	}
}
