package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestDecide(t *testing.T) {
	today := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	monthly := int64(30000)

	tests := []struct {
		name       string
		membership *members.Membership
		want       notify.ReminderKind
	}{
		{
			name: "first month reminder a week before due date",
			membership: &members.Membership{
				IsFirstMonth:   true,
				MonthlyAmount:  &monthly,
				DueDate:        today.AddDate(0, 0, 7),
				MonthlyDueDate: datePtr(today.AddDate(0, 1, 0)),
			},
			want: notify.ReminderFirstMonth,
		},
		{
			name: "monthly reminder on the monthly due date",
			membership: &members.Membership{
				IsFirstMonth:   false,
				MonthlyAmount:  &monthly,
				DueDate:        today.AddDate(0, 6, 0),
				MonthlyDueDate: datePtr(today),
			},
			want: notify.ReminderMonthly,
		},
		{
			name: "annual reminder a week before due date",
			membership: &members.Membership{
				IsFirstMonth: false,
				DueDate:      today.AddDate(0, 0, 7),
			},
			want: notify.ReminderAnnual,
		},
		{
			name: "no reminder outside any window",
			membership: &members.Membership{
				IsFirstMonth: false,
				DueDate:      today.AddDate(0, 3, 0),
			},
			want: ReminderNone,
		},
		{
			name: "first month takes priority over a monthly due date",
			membership: &members.Membership{
				IsFirstMonth:   true,
				MonthlyAmount:  &monthly,
				DueDate:        today.AddDate(0, 0, 7),
				MonthlyDueDate: datePtr(today),
			},
			want: notify.ReminderFirstMonth,
		},
		{
			name: "first month off the reminder day fires nothing",
			membership: &members.Membership{
				IsFirstMonth:   true,
				MonthlyAmount:  &monthly,
				DueDate:        today.AddDate(0, 0, 8),
				MonthlyDueDate: datePtr(today),
			},
			want: ReminderNone,
		},
		{
			name: "day late misses the annual window entirely",
			membership: &members.Membership{
				IsFirstMonth: false,
				DueDate:      today.AddDate(0, 0, 6),
			},
			want: ReminderNone,
		},
		{
			name: "time of day does not matter",
			membership: &members.Membership{
				IsFirstMonth: false,
				DueDate:      time.Date(2026, 9, 7, 23, 59, 0, 0, time.UTC),
			},
			want: notify.ReminderAnnual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.membership, today, 7))
		})
	}
}

func TestDecideLeadDays(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	m := &members.Membership{DueDate: today.AddDate(0, 0, 14)}

	assert.Equal(t, notify.ReminderAnnual, Decide(m, today, 14))
	assert.Equal(t, ReminderNone, Decide(m, today, 7))
}
