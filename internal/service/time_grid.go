package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DefaultAfternoonCutoff separates morning from afternoon blocks.
const DefaultAfternoonCutoff = "13:00"

// DefaultTimeBlocks is the standard daily catalog used when none is configured.
var DefaultTimeBlocks = []models.TimeBlock{
	{StartTime: "07:00", EndTime: "07:50"},
	{StartTime: "07:50", EndTime: "08:40"},
	{StartTime: "08:40", EndTime: "09:30"},
	{StartTime: "09:30", EndTime: "10:00", IsBreak: true},
	{StartTime: "10:00", EndTime: "10:50"},
	{StartTime: "10:50", EndTime: "11:40"},
	{StartTime: "11:40", EndTime: "12:30"},
	{StartTime: "13:00", EndTime: "13:50"},
	{StartTime: "13:50", EndTime: "14:40"},
	{StartTime: "14:40", EndTime: "15:30"},
	{StartTime: "15:30", EndTime: "15:50", IsBreak: true},
	{StartTime: "15:50", EndTime: "16:40"},
	{StartTime: "16:40", EndTime: "17:30"},
	{StartTime: "17:30", EndTime: "18:20"},
}

// TimeGridConfig shapes a TimeGrid.
type TimeGridConfig struct {
	Blocks          []models.TimeBlock
	AfternoonCutoff string
	IncludeSaturday bool
}

// TimeGrid is the static weekday by block catalog.
type TimeGrid struct {
	blocks    []models.TimeBlock
	weekdays  []models.Weekday
	cutoff    int
	cutoffRaw string
}

// NewTimeGrid validates the catalog and freezes it.
func NewTimeGrid(cfg TimeGridConfig) (*TimeGrid, error) {
	source := cfg.Blocks
	if len(source) == 0 {
		source = DefaultTimeBlocks
	}
	if cfg.AfternoonCutoff == "" {
		cfg.AfternoonCutoff = DefaultAfternoonCutoff
	}
	cutoff, err := models.ParseClock(cfg.AfternoonCutoff)
	if err != nil {
		return nil, fmt.Errorf("afternoon cutoff: %w", err)
	}

	blocks := make([]models.TimeBlock, len(source))
	previousEnd := -1
	for i, block := range source {
		start, err := models.ParseClock(block.StartTime)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		end, err := models.ParseClock(block.EndTime)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("block %d ends before it starts", i)
		}
		if start < previousEnd {
			return nil, fmt.Errorf("block %d overlaps or precedes block %d", i, i-1)
		}
		previousEnd = end
		block.Index = i
		blocks[i] = block
	}

	weekdays := append([]models.Weekday(nil), models.SchoolWeek...)
	if cfg.IncludeSaturday {
		weekdays = append(weekdays, models.Saturday)
	}

	return &TimeGrid{blocks: blocks, weekdays: weekdays, cutoff: cutoff, cutoffRaw: cfg.AfternoonCutoff}, nil
}

// MustDefaultTimeGrid returns the built-in catalog.
func MustDefaultTimeGrid() *TimeGrid {
	grid, err := NewTimeGrid(TimeGridConfig{})
	if err != nil {
		panic(err)
	}
	return grid
}

// Blocks returns a copy of the full ordered catalog.
func (g *TimeGrid) Blocks() []models.TimeBlock {
	return append([]models.TimeBlock(nil), g.blocks...)
}

// Weekdays returns the teaching days in canonical order.
func (g *TimeGrid) Weekdays() []models.Weekday {
	return append([]models.Weekday(nil), g.weekdays...)
}

// AfternoonCutoff returns the configured shift boundary.
func (g *TimeGrid) AfternoonCutoff() string {
	return g.cutoffRaw
}

// HasWeekday reports whether the day belongs to the grid.
func (g *TimeGrid) HasWeekday(day models.Weekday) bool {
	for _, d := range g.weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Block returns the block at index.
func (g *TimeGrid) Block(index int) (models.TimeBlock, bool) {
	if index < 0 || index >= len(g.blocks) {
		return models.TimeBlock{}, false
	}
	return g.blocks[index], true
}

// BlockByStart finds the block beginning at start.
func (g *TimeGrid) BlockByStart(start string) (models.TimeBlock, bool) {
	for _, block := range g.blocks {
		if block.StartTime == start {
			return block, true
		}
	}
	return models.TimeBlock{}, false
}

// IsBreak reports whether the block can never host an assignment.
func (g *TimeGrid) IsBreak(block models.TimeBlock) bool {
	if indexed, ok := g.Block(block.Index); ok && indexed.StartTime == block.StartTime {
		return indexed.IsBreak
	}
	for _, candidate := range g.blocks {
		if candidate.StartTime == block.StartTime && candidate.EndTime == block.EndTime {
			return candidate.IsBreak
		}
	}
	return block.IsBreak
}

// IsAssignableRange reports whether start/end match a non-break block of the grid.
func (g *TimeGrid) IsAssignableRange(start, end string) bool {
	for _, block := range g.blocks {
		if block.StartTime == start && block.EndTime == end {
			return !block.IsBreak
		}
	}
	return false
}

// BlocksForShift returns the blocks starting inside the shift, breaks included, in
// chronological order.
func (g *TimeGrid) BlocksForShift(shift models.Shift) []models.TimeBlock {
	result := make([]models.TimeBlock, 0, len(g.blocks))
	for _, block := range g.blocks {
		start, _ := models.ParseClock(block.StartTime)
		switch shift {
		case models.ShiftMorning:
			if start < g.cutoff {
				result = append(result, block)
			}
		case models.ShiftAfternoon:
			if start >= g.cutoff {
				result = append(result, block)
			}
		}
	}
	return result
}
