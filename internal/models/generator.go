package models

import "sort"

// SubjectPlan is the generator input for one subject taught by a teacher.
type SubjectPlan struct {
	SubjectID   string   `json:"subject_id" validate:"required"`
	GroupIDs    []string `json:"group_ids" validate:"dive,required"`
	WeeklyHours int      `json:"weekly_hours" validate:"min=0,max=40"`
}

// TeacherPlan lists the subjects to generate for a teacher in configuration order.
type TeacherPlan struct {
	TeacherID string        `json:"teacher_id" validate:"required"`
	Subjects  []SubjectPlan `json:"subjects" validate:"dive"`
}

// Subject returns the plan for the subject when configured.
func (p TeacherPlan) Subject(subjectID string) (SubjectPlan, bool) {
	for _, subject := range p.Subjects {
		if subject.SubjectID == subjectID {
			return subject, true
		}
	}
	return SubjectPlan{}, false
}

// GeneratorConfig is the ordered per-teacher generator input. Values are treated as
// immutable; edits produce a new config.
type GeneratorConfig struct {
	Teachers []TeacherPlan `json:"teachers"`
}

// NewGeneratorConfig copies plans into a config; a repeated teacher replaces the earlier
// plan in place.
func NewGeneratorConfig(plans []TeacherPlan) GeneratorConfig {
	cfg := GeneratorConfig{Teachers: make([]TeacherPlan, 0, len(plans))}
	for _, plan := range plans {
		cfg = cfg.WithPlan(plan)
	}
	return cfg
}

// Plan returns the plan configured for the teacher.
func (c GeneratorConfig) Plan(teacherID string) (TeacherPlan, bool) {
	for _, plan := range c.Teachers {
		if plan.TeacherID == teacherID {
			return plan, true
		}
	}
	return TeacherPlan{}, false
}

// WithPlan returns a copy of the config with the teacher plan inserted or replaced in place.
func (c GeneratorConfig) WithPlan(plan TeacherPlan) GeneratorConfig {
	plan = clonePlan(plan)
	next := GeneratorConfig{Teachers: make([]TeacherPlan, 0, len(c.Teachers)+1)}
	replaced := false
	for _, existing := range c.Teachers {
		if existing.TeacherID == plan.TeacherID {
			next.Teachers = append(next.Teachers, plan)
			replaced = true
			continue
		}
		next.Teachers = append(next.Teachers, clonePlan(existing))
	}
	if !replaced {
		next.Teachers = append(next.Teachers, plan)
	}
	return next
}

// WithoutPlan returns a copy of the config without the teacher.
func (c GeneratorConfig) WithoutPlan(teacherID string) GeneratorConfig {
	next := GeneratorConfig{Teachers: make([]TeacherPlan, 0, len(c.Teachers))}
	for _, existing := range c.Teachers {
		if existing.TeacherID == teacherID {
			continue
		}
		next.Teachers = append(next.Teachers, clonePlan(existing))
	}
	return next
}

func clonePlan(plan TeacherPlan) TeacherPlan {
	out := TeacherPlan{TeacherID: plan.TeacherID, Subjects: make([]SubjectPlan, len(plan.Subjects))}
	for i, subject := range plan.Subjects {
		out.Subjects[i] = SubjectPlan{
			SubjectID:   subject.SubjectID,
			GroupIDs:    append([]string(nil), subject.GroupIDs...),
			WeeklyHours: subject.WeeklyHours,
		}
	}
	return out
}

// ShiftKey identifies a (teacher, subject, group) triple.
type ShiftKey struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
}

// ShiftSelection pairs a triple with its chosen shift; it is the serialised form of a
// ShiftTable entry.
type ShiftSelection struct {
	ShiftKey
	Shift Shift `json:"shift" validate:"required,oneof=MORNING AFTERNOON"`
}

// ShiftTable is an immutable lookup of shift selections.
type ShiftTable struct {
	entries map[ShiftKey]Shift
}

// NewShiftTable builds a table from selections; later duplicates win.
func NewShiftTable(selections []ShiftSelection) ShiftTable {
	entries := make(map[ShiftKey]Shift, len(selections))
	for _, selection := range selections {
		entries[selection.ShiftKey] = selection.Shift
	}
	return ShiftTable{entries: entries}
}

// Lookup returns the configured shift, or MORNING when none is set.
func (t ShiftTable) Lookup(key ShiftKey) Shift {
	if shift, ok := t.entries[key]; ok {
		return shift
	}
	return ShiftMorning
}

// With returns a new table with the selection applied.
func (t ShiftTable) With(key ShiftKey, shift Shift) ShiftTable {
	entries := make(map[ShiftKey]Shift, len(t.entries)+1)
	for k, v := range t.entries {
		entries[k] = v
	}
	entries[key] = shift
	return ShiftTable{entries: entries}
}

// WithoutTeacher drops every selection belonging to the teacher.
func (t ShiftTable) WithoutTeacher(teacherID string) ShiftTable {
	entries := make(map[ShiftKey]Shift, len(t.entries))
	for k, v := range t.entries {
		if k.TeacherID == teacherID {
			continue
		}
		entries[k] = v
	}
	return ShiftTable{entries: entries}
}

// Len returns the number of explicit selections.
func (t ShiftTable) Len() int {
	return len(t.entries)
}

// Selections flattens the table in a stable order for persistence.
func (t ShiftTable) Selections() []ShiftSelection {
	out := make([]ShiftSelection, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, ShiftSelection{ShiftKey: k, Shift: v})
	}
	sortSelections(out)
	return out
}

func sortSelections(items []ShiftSelection) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].TeacherID != items[j].TeacherID {
			return items[i].TeacherID < items[j].TeacherID
		}
		if items[i].SubjectID != items[j].SubjectID {
			return items[i].SubjectID < items[j].SubjectID
		}
		return items[i].GroupID < items[j].GroupID
	})
}

// UnfulfilledQuota reports a teacher's subject whose weekly hours could not all be placed.
type UnfulfilledQuota struct {
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
	Required  int    `json:"required"`
	Placed    int    `json:"placed"`
}

// Missing returns the number of hours left unplaced.
func (q UnfulfilledQuota) Missing() int {
	return q.Required - q.Placed
}
