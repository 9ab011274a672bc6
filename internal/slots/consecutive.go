package slots

import "time"

// Run is a stretch of back-to-back selectable slots.
type Run struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours int       `json:"hours"`
}

// SelectableSlots returns only slots a renter may pick.
func SelectableSlots(grid []Slot) []Slot {
	out := make([]Slot, 0, len(grid))
	for _, s := range grid {
		if s.Selectable() {
			out = append(out, s)
		}
	}
	return out
}

// FreeRuns merges adjacent selectable slots of a grid ordered by start time.
// The result is never nil.
func FreeRuns(grid []Slot) []Run {
	runs := make([]Run, 0)
	for _, s := range grid {
		if !s.Selectable() {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].End.Equal(s.StartTime) {
			runs[n-1].End = s.EndTime
			runs[n-1].Hours++
			continue
		}
		runs = append(runs, Run{Start: s.StartTime, End: s.EndTime, Hours: 1})
	}
	return runs
}

// DurationOptions returns the booking lengths in hours that fit from start
// without crossing a booked or past slot. start must be a slot boundary.
func DurationOptions(grid []Slot, start time.Time) []int {
	for _, r := range FreeRuns(grid) {
		if start.Before(r.Start) || !start.Before(r.End) {
			continue
		}
		var opts []int
		for _, s := range grid {
			if s.StartTime.Before(start) || s.EndTime.After(r.End) {
				continue
			}
			if len(opts) == 0 && !s.StartTime.Equal(start) {
				return nil
			}
			opts = append(opts, len(opts)+1)
		}
		return opts
	}
	return nil
}
