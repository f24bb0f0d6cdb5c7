package models

import "time"

// WorkflowState is a step of the manual assignment state machine.
type WorkflowState string

const (
	WorkflowIdle                 WorkflowState = "IDLE"
	WorkflowEntitySelected       WorkflowState = "ENTITY_SELECTED"
	WorkflowSubjectSelected      WorkflowState = "SUBJECT_SELECTED"
	WorkflowCellChosen           WorkflowState = "CELL_CHOSEN"
	WorkflowCounterpartSelection WorkflowState = "COUNTERPART_SELECTION"
)

// EntityRef points at a teacher or a group.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// IsZero reports whether nothing has been selected.
func (r EntityRef) IsZero() bool {
	return r.ID == ""
}

// GridCell addresses a weekday and a block of the time grid.
type GridCell struct {
	Weekday    Weekday `json:"weekday"`
	BlockIndex int     `json:"block_index"`
}

// WorkflowSession carries the selections of one manual assignment flow. It is passed
// by value through every transition.
type WorkflowSession struct {
	ID        string         `json:"id"`
	State     WorkflowState  `json:"state"`
	Anchor    EntityRef      `json:"anchor"`
	SubjectID string         `json:"subject_id,omitempty"`
	Cell      *GridCell      `json:"cell,omitempty"`
	Conflicts []ConflictInfo `json:"conflicts,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
