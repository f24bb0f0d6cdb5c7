package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTimeGridDefaults(t *testing.T) {
	grid := defaultGrid(t)

	assert.Equal(t, models.SchoolWeek, grid.Weekdays())
	assert.Len(t, grid.Blocks(), len(DefaultTimeBlocks))
	assert.Equal(t, DefaultAfternoonCutoff, grid.AfternoonCutoff())
	for i, block := range grid.Blocks() {
		assert.Equal(t, i, block.Index)
	}
}

func TestTimeGridIncludeSaturday(t *testing.T) {
	grid, err := NewTimeGrid(TimeGridConfig{IncludeSaturday: true})
	require.NoError(t, err)

	assert.True(t, grid.HasWeekday(models.Saturday))
	assert.Equal(t, models.Saturday, grid.Weekdays()[5])
}

func TestTimeGridRejectsOverlappingBlocks(t *testing.T) {
	_, err := NewTimeGrid(TimeGridConfig{Blocks: []models.TimeBlock{
		{StartTime: "07:00", EndTime: "08:00"},
		{StartTime: "07:30", EndTime: "08:30"},
	}})
	require.Error(t, err)

	_, err = NewTimeGrid(TimeGridConfig{Blocks: []models.TimeBlock{{StartTime: "09:00", EndTime: "08:00"}}})
	require.Error(t, err)

	_, err = NewTimeGrid(TimeGridConfig{AfternoonCutoff: "1pm"})
	require.Error(t, err)
}

func TestTimeGridBlocksForShift(t *testing.T) {
	grid := defaultGrid(t)

	morning := grid.BlocksForShift(models.ShiftMorning)
	afternoon := grid.BlocksForShift(models.ShiftAfternoon)

	require.Len(t, morning, 7)
	require.Len(t, afternoon, 7)
	assert.Equal(t, "07:00", morning[0].StartTime)
	assert.Equal(t, "11:40", morning[6].StartTime)
	assert.Equal(t, "13:00", afternoon[0].StartTime)
	for i := 1; i < len(morning); i++ {
		assert.Less(t, morning[i-1].StartTime, morning[i].StartTime)
	}
	assert.Empty(t, grid.BlocksForShift(models.Shift("NIGHT")))
}

func TestTimeGridIsBreak(t *testing.T) {
	grid := defaultGrid(t)

	block, ok := grid.Block(3)
	require.True(t, ok)
	assert.True(t, grid.IsBreak(block))

	first, _ := grid.Block(0)
	assert.False(t, grid.IsBreak(first))

	assert.True(t, grid.IsBreak(models.TimeBlock{Index: -1, StartTime: "15:30", EndTime: "15:50"}))
	assert.True(t, grid.IsAssignableRange("07:00", "07:50"))
	assert.False(t, grid.IsAssignableRange("09:30", "10:00"))
	assert.False(t, grid.IsAssignableRange("07:00", "08:00"))

	_, ok = grid.Block(99)
	assert.False(t, ok)
	found, ok := grid.BlockByStart("13:00")
	require.True(t, ok)
	assert.Equal(t, 7, found.Index)
}

func TestTimeGridBlocksReturnsCopy(t *testing.T) {
	grid := defaultGrid(t)
	blocks := grid.Blocks()
	blocks[0].IsBreak = true

	first, _ := grid.Block(0)
	assert.False(t, first.IsBreak)
}
