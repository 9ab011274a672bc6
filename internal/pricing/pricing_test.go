package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenhub/internal/interval"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 5, 1, hour, min, 0, 0, time.UTC)
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		rate  string
		start time.Time
		end   time.Time
		want  string
	}{
		{"one hour", "1000", at(9, 0), at(10, 0), "1000"},
		{"ninety minutes billed as two hours", "1000", at(9, 0), at(10, 30), "2000"},
		{"short booking billed as one hour", "750.50", at(9, 0), at(9, 10), "750.5"},
		{"free kitchen", "0", at(9, 0), at(12, 0), "0"},
		{"fractional rate", "333.33", at(9, 0), at(12, 0), "999.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Total(decimal.RequireFromString(tt.rate), tt.start, tt.end)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestTotal_Errors(t *testing.T) {
	_, err := Total(decimal.NewFromInt(-1), at(9, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = Total(decimal.NewFromInt(100), at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, interval.ErrNonPositive)
}

func TestCalculate(t *testing.T) {
	q, err := Calculate(decimal.NewFromInt(1200), at(14, 0), at(17, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, q.Hours)
	assert.True(t, decimal.NewFromInt(3600).Equal(q.Total))
}
