package models

import "time"

// ConflictDimension names the side of an assignment that collides.
type ConflictDimension string

const (
	ConflictTeacher ConflictDimension = "TEACHER"
	ConflictGroup   ConflictDimension = "GROUP"
)

// ConflictInfo describes an existing assignment that blocks a candidate, enriched with
// display names for user facing messages.
type ConflictInfo struct {
	Assignment      Assignment        `json:"assignment"`
	Dimension       ConflictDimension `json:"dimension"`
	SubjectName     string            `json:"subject_name"`
	CounterpartName string            `json:"counterpart_name"`
	TimeRange       string            `json:"time_range"`
}

// ScheduleConflictError is returned when a candidate collides with existing assignments.
type ScheduleConflictError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Conflicts []ConflictInfo `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// PersistenceWarning records a failed background write. The in-memory change it
// mirrors has already been committed.
type PersistenceWarning struct {
	Version    uint64    `json:"version"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
