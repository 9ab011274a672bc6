package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"a inside b", at(10, 15), at(10, 45), at(10, 0), at(11, 0), true},
		{"b inside a", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"partial start", at(9, 30), at(10, 30), at(10, 0), at(11, 0), true},
		{"partial end", at(10, 30), at(11, 30), at(10, 0), at(11, 0), true},
		{"back to back before", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"back to back after", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(13, 0), at(14, 0), at(10, 0), at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "symmetry")
		})
	}
}

func TestDurationHours(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		want    int
		wantErr bool
	}{
		{"exact hour", at(9, 0), at(10, 0), 1, false},
		{"ninety minutes rounds up", at(9, 0), at(10, 30), 2, false},
		{"one minute is one hour", at(9, 0), at(9, 1), 1, false},
		{"three hours", at(9, 0), at(12, 0), 3, false},
		{"zero length", at(9, 0), at(9, 0), 0, true},
		{"negative", at(10, 0), at(9, 0), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationHours(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNonPositive)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterval(t *testing.T) {
	_, err := New(at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrNonPositive)

	iv, err := New(at(10, 0), at(11, 30))
	require.NoError(t, err)
	assert.True(t, iv.Valid())
	assert.Equal(t, 90*time.Minute, iv.Duration())
	assert.True(t, iv.Contains(at(10, 0)))
	assert.False(t, iv.Contains(at(11, 30)))
	assert.True(t, iv.Overlaps(Interval{Start: at(11, 0), End: at(12, 0)}))
	assert.False(t, iv.Overlaps(Interval{Start: at(11, 30), End: at(12, 0)}))
}
