package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenterLimiterEvictsIdleUsers(t *testing.T) {
	clock := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	l := newRenterLimiter(2)
	l.now = func() time.Time { return clock }

	for id := int64(1); id <= 100; id++ {
		assert.True(t, l.Allow(id))
	}
	assert.Equal(t, 100, l.size())

	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst of two spent")

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.Allow(7))

	clock = clock.Add(40 * time.Second)
	assert.True(t, l.Allow(7), "one token refilled")
	assert.Equal(t, 1, l.size(), "users idle for a minute are dropped")

	clock = clock.Add(time.Minute)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1), "evicted user starts with a full bucket")
}

func TestRenterLimiterDisabled(t *testing.T) {
	l := newRenterLimiter(0)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow(1))
	}
}
