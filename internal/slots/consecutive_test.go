package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenhub/internal/interval"
)

func TestFreeRuns(t *testing.T) {
	grid := Resolve(Generate(day, Window{StartHour: 8, EndHour: 14}, day.Location()),
		[]interval.Interval{{Start: at(10, 0), End: at(11, 0)}}, at(0, 0))

	runs := FreeRuns(grid)
	require.Len(t, runs, 2)
	assert.Equal(t, Run{Start: at(8, 0), End: at(10, 0), Hours: 2}, runs[0])
	assert.Equal(t, Run{Start: at(11, 0), End: at(14, 0), Hours: 3}, runs[1])
	assert.Len(t, SelectableSlots(grid), 5)
}

func TestFreeRuns_PastAndFullyBooked(t *testing.T) {
	grid := Resolve(Generate(day, Window{StartHour: 8, EndHour: 12}, day.Location()), nil, at(9, 30))
	runs := FreeRuns(grid)
	require.Len(t, runs, 1)
	assert.Equal(t, at(10, 0), runs[0].Start)
	assert.Equal(t, 2, runs[0].Hours)

	full := Resolve(Generate(day, Window{StartHour: 8, EndHour: 12}, day.Location()),
		[]interval.Interval{{Start: at(0, 0), End: at(23, 0)}}, at(0, 0))
	none := FreeRuns(full)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDurationOptions(t *testing.T) {
	grid := Resolve(Generate(day, Window{StartHour: 8, EndHour: 14}, day.Location()),
		[]interval.Interval{{Start: at(12, 0), End: at(13, 0)}}, at(0, 0))

	assert.Equal(t, []int{1, 2, 3, 4}, DurationOptions(grid, at(8, 0)))
	assert.Equal(t, []int{1, 2, 3}, DurationOptions(grid, at(9, 0)))
	assert.Equal(t, []int{1}, DurationOptions(grid, at(11, 0)))
	assert.Equal(t, []int{1}, DurationOptions(grid, at(13, 0)))
	assert.Nil(t, DurationOptions(grid, at(12, 0)), "booked start")
	assert.Nil(t, DurationOptions(grid, at(7, 0)), "outside grid")
	assert.Nil(t, DurationOptions(grid, at(9, 30)), "not a slot boundary")
	assert.Nil(t, DurationOptions(grid, at(8, 0).Add(-time.Minute)), "before the window")
}
