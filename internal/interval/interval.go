// Package interval implements half-open time interval arithmetic used by
// availability, pricing and conflict checks.
package interval

import (
	"errors"
	"time"
)

// ErrNonPositive is returned when an interval ends at or before its start.
var ErrNonPositive = errors.New("interval end must be after start")

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New builds an interval and rejects non-positive lengths.
func New(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrNonPositive
	}
	return Interval{Start: start, End: end}, nil
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DurationHours returns the number of billable hours in [start, end):
// partial hours round up and the minimum is one hour.
func DurationHours(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, ErrNonPositive
	}
	d := end.Sub(start)
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours, nil
}
