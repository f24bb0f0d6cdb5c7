package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday names a teaching day.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// SchoolWeek is the canonical Monday to Friday order.
var SchoolWeek = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayIndex = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// ParseWeekday normalises user input such as "monday" into a Weekday.
func ParseWeekday(raw string) (Weekday, bool) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := weekdayIndex[day]
	return day, ok
}

// Index returns the 1-based position of the day in the week, or 0 when unknown.
func (d Weekday) Index() int {
	return weekdayIndex[d]
}

// Shift is the half of the school day a lesson belongs to.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

// ParseShift normalises user input into a Shift.
func ParseShift(raw string) (Shift, bool) {
	shift := Shift(strings.ToUpper(strings.TrimSpace(raw)))
	return shift, shift == ShiftMorning || shift == ShiftAfternoon
}

// TimeBlock is one row of the weekly grid. Blocks are identical across weekdays.
type TimeBlock struct {
	Index     int    `json:"index"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBreak   bool   `json:"is_break"`
}

// Label renders the block as "HH:MM-HH:MM".
func (b TimeBlock) Label() string {
	return TimeRange(b.StartTime, b.EndTime)
}

// TimeRange renders a start/end pair for user facing messages.
func TimeRange(start, end string) string {
	return start + "-" + end
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect. Unparseable
// bounds fall back to exact start matching.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err1 := ParseClock(aStart)
	ae, err2 := ParseClock(aEnd)
	bs, err3 := ParseClock(bStart)
	be, err4 := ParseClock(bEnd)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return aStart == bStart
	}
	return as < be && bs < ae
}

// Assignment places a subject, teacher and group into one weekly cell.
type Assignment struct {
	ID        string  `db:"id" json:"id"`
	Weekday   Weekday `db:"weekday" json:"weekday"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	SubjectID string  `db:"subject_id" json:"subject_id"`
	TeacherID string  `db:"teacher_id" json:"teacher_id"`
	GroupID   string  `db:"group_id" json:"group_id"`
}

// References reports whether the assignment points at the entity on the given side.
func (a Assignment) References(entityID string, isTeacher bool) bool {
	if entityID == "" {
		return false
	}
	if isTeacher {
		return a.TeacherID == entityID
	}
	return a.GroupID == entityID
}

// AssignmentPatch carries optional field updates. Nil fields are left untouched.
type AssignmentPatch struct {
	SubjectID *string `json:"subject_id,omitempty"`
	TeacherID *string `json:"teacher_id,omitempty"`
	GroupID   *string `json:"group_id,omitempty"`
}

// Apply returns a copy of the assignment with the patch applied.
func (p AssignmentPatch) Apply(a Assignment) Assignment {
	if p.SubjectID != nil {
		a.SubjectID = *p.SubjectID
	}
	if p.TeacherID != nil {
		a.TeacherID = *p.TeacherID
	}
	if p.GroupID != nil {
		a.GroupID = *p.GroupID
	}
	return a
}

// AssignmentFilter narrows listing queries.
type AssignmentFilter struct {
	TeacherID string
	GroupID   string
	Weekday   Weekday
}

// Matches reports whether the assignment satisfies every populated filter field.
func (f AssignmentFilter) Matches(a Assignment) bool {
	if f.TeacherID != "" && a.TeacherID != f.TeacherID {
		return false
	}
	if f.GroupID != "" && a.GroupID != f.GroupID {
		return false
	}
	if f.Weekday != "" && a.Weekday != f.Weekday {
		return false
	}
	return true
}

// ScheduleEventKind enumerates store mutations.
type ScheduleEventKind string

const (
	ScheduleEventAdded    ScheduleEventKind = "ADDED"
	ScheduleEventUpdated  ScheduleEventKind = "UPDATED"
	ScheduleEventRemoved  ScheduleEventKind = "REMOVED"
	ScheduleEventCleared  ScheduleEventKind = "CLEARED"
	ScheduleEventReplaced ScheduleEventKind = "REPLACED"
	ScheduleEventRestored ScheduleEventKind = "RESTORED"
)

// ScheduleEvent is emitted after a successful store mutation.
type ScheduleEvent struct {
	Kind    ScheduleEventKind `json:"kind"`
	IDs     []string          `json:"ids,omitempty"`
	Version uint64            `json:"version"`
	Count   int               `json:"count"`
}
