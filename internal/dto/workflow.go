package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// SelectEntityRequest anchors a workflow session on a teacher or a group.
type SelectEntityRequest struct {
	Kind string `json:"kind" validate:"required,oneof=TEACHER GROUP teacher group"`
	ID   string `json:"id" validate:"required"`
}

// SelectSubjectRequest picks the subject for consecutive assignments.
type SelectSubjectRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
}

// ChooseCellRequest taps a grid cell.
type ChooseCellRequest struct {
	Weekday    string `json:"weekday" validate:"required"`
	BlockIndex *int   `json:"block_index" validate:"required,min=0"`
}

// SelectCounterpartRequest resolves the group for a teacher anchored session.
type SelectCounterpartRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// WorkflowOutcome reports what a transition committed, if anything.
type WorkflowOutcome struct {
	Session    models.WorkflowSession `json:"session"`
	Committed  *models.Assignment     `json:"committed,omitempty"`
	Pending    *models.Assignment     `json:"pending,omitempty"`
	Removed    int                    `json:"removed,omitempty"`
	NeedsGroup bool                   `json:"needs_group,omitempty"`
	Prompt     string                 `json:"prompt,omitempty"`
}

// ConflictCheckRequest asks the detector about a candidate without committing it.
type ConflictCheckRequest struct {
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	TeacherID string `json:"teacher_id"`
	GroupID   string `json:"group_id"`
	IgnoreID  string `json:"ignore_id"`
}

// ConflictCheckResponse lists collisions for a candidate.
type ConflictCheckResponse struct {
	HasConflict bool                  `json:"has_conflict"`
	Conflicts   []models.ConflictInfo `json:"conflicts"`
}

// UpdateAssignmentRequest patches an assignment.
type UpdateAssignmentRequest struct {
	SubjectID *string `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
	GroupID   *string `json:"group_id"`
}

// TimeGridResponse describes the weekly grid.
type TimeGridResponse struct {
	Weekdays        []models.Weekday   `json:"weekdays"`
	Blocks          []models.TimeBlock `json:"blocks"`
	AfternoonCutoff string             `json:"afternoon_cutoff"`
}
