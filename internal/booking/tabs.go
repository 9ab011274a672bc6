package booking

import (
	"fmt"
	"time"

	"kitchenhub/internal/model"
)

// Tab groups bookings for the "my bookings" views.
type Tab string

const (
	TabUpcoming  Tab = "upcoming"
	TabPast      Tab = "past"
	TabCancelled Tab = "cancelled"
)

// ParseTab validates a tab name; empty means upcoming.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case "":
		return TabUpcoming, nil
	case TabUpcoming, TabPast, TabCancelled:
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Classify places a booking into exactly one tab.
func Classify(b *model.Booking, now time.Time) Tab {
	switch {
	case b.Status == model.StatusCancelled:
		return TabCancelled
	case !b.EndTime.After(now) || b.Status == model.StatusCompleted:
		return TabPast
	default:
		return TabUpcoming
	}
}

// FilterTab returns the bookings belonging to tab, preserving order.
func FilterTab(bookings []model.Booking, tab Tab, now time.Time) []model.Booking {
	out := make([]model.Booking, 0, len(bookings))
	for i := range bookings {
		if Classify(&bookings[i], now) == tab {
			out = append(out, bookings[i])
		}
	}
	return out
}
