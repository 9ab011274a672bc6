// Package slots builds the hourly slot grid for a kitchen day and marks
// which slots are booked or already past.
package slots

import (
	"time"

	"kitchenhub/internal/interval"
)

// Window is the bookable hour range [StartHour, EndHour) of a day.
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow covers 08:00 to 22:00.
var DefaultWindow = Window{StartHour: 8, EndHour: 22}

// Slot is a one-hour cell of the daily grid.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
	IsBooked  bool
	IsPast    bool
}

// Selectable reports whether a renter may pick this slot.
func (s Slot) Selectable() bool {
	return !s.IsBooked && !s.IsPast
}

// State returns the display state of the slot.
func (s Slot) State() string {
	switch {
	case s.IsBooked:
		return "booked"
	case s.IsPast:
		return "past"
	default:
		return "available"
	}
}

// Interval returns the slot range.
func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.StartTime, End: s.EndTime}
}

// SlotInfo is a simplified representation for API responses.
type SlotInfo struct {
	Start      string    `json:"start"` // "10:00"
	End        string    `json:"end"`   // "11:00"
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	State      string    `json:"state"`
	Selectable bool      `json:"selectable"`
}

// Generate returns the one-hour slots of the window on day's calendar date in
// loc. Slots step by elapsed hours from the opening instant, so a window that
// spans a DST change yields one slot fewer or more, each still exactly an hour.
// Slot flags are left unset; see Resolve.
func Generate(day time.Time, w Window, loc *time.Location) []Slot {
	if loc == nil {
		loc = day.Location()
	}
	startHour, endHour := clampHour(w.StartHour), clampHour(w.EndHour)
	if startHour >= endHour {
		return []Slot{}
	}

	y, m, d := day.In(loc).Date()
	open := time.Date(y, m, d, startHour, 0, 0, 0, loc)
	closeAt := time.Date(y, m, d, endHour, 0, 0, 0, loc)

	slots := make([]Slot, 0, endHour-startHour+1)
	for t := open; !t.Add(time.Hour).After(closeAt); t = t.Add(time.Hour) {
		slots = append(slots, Slot{StartTime: t, EndTime: t.Add(time.Hour)})
	}
	return slots
}

// Resolve marks each slot as booked when it overlaps any busy interval and as
// past when it starts before now. The input grid is not modified.
func Resolve(grid []Slot, busy []interval.Interval, now time.Time) []Slot {
	out := make([]Slot, len(grid))
	for i, s := range grid {
		s.IsBooked = false
		for _, b := range busy {
			if interval.Overlaps(s.StartTime, s.EndTime, b.Start, b.End) {
				s.IsBooked = true
				break
			}
		}
		s.IsPast = s.StartTime.Before(now)
		out[i] = s
	}
	return out
}

// ToSlotInfo converts slots to SlotInfo for the API.
func ToSlotInfo(slots []Slot) []SlotInfo {
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			Start:      s.StartTime.Format("15:04"),
			End:        s.EndTime.Format("15:04"),
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			State:      s.State(),
			Selectable: s.Selectable(),
		}
	}
	return result
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 24 {
		return 24
	}
	return h
}
