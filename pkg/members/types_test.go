package members

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{"zero", 0, "0.00"},
		{"whole dollars", 50000, "500.00"},
		{"with remainder", 80000, "800.00"},
		{"sub dollar", 99, "0.99"},
		{"single cent", 1, "0.01"},
		{"mixed", 123456, "1234.56"},
		{"negative", -2550, "-25.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCents(tt.cents))
		})
	}
}

func TestSameDay(t *testing.T) {
	base := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)

	assert.True(t, SameDay(base, base))
	assert.True(t, SameDay(base, time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)),
		"time of day must not matter")
	assert.False(t, SameDay(base, base.AddDate(0, 0, 1)))
	assert.False(t, SameDay(base, base.AddDate(1, 0, 0)))

	// Zones are normalized to UTC before comparison
	est := time.FixedZone("EST", -5*3600)
	assert.True(t, SameDay(base, time.Date(2026, 8, 31, 4, 30, 0, 0, est)))
}

func TestDefaultFees(t *testing.T) {
	fees := DefaultFees()
	assert.Equal(t, int64(50000), fees.AnnualCents)
	assert.Equal(t, int64(30000), fees.MonthlyCents)
}
