package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// GenerationStats summarises a generator run.
type GenerationStats struct {
	Teachers int           `json:"teachers"`
	Triples  int           `json:"triples"`
	Placed   int           `json:"placed"`
	Missing  int           `json:"missing"`
	Duration time.Duration `json:"duration_ns"`
}

// GenerationResult is returned by preview and run.
type GenerationResult struct {
	Committed   bool                      `json:"committed"`
	Assignments []models.Assignment       `json:"assignments"`
	Unfulfilled []models.UnfulfilledQuota `json:"unfulfilled"`
	Stats       GenerationStats           `json:"stats"`
}

// GeneratorConfigResponse exposes the plan list with flattened shift selections.
type GeneratorConfigResponse struct {
	Teachers []models.TeacherPlan    `json:"teachers"`
	Shifts   []models.ShiftSelection `json:"shifts"`
}

// PutTeacherPlanRequest replaces the plan of the teacher in the path.
type PutTeacherPlanRequest struct {
	Subjects []models.SubjectPlan `json:"subjects" validate:"dive"`
}

// SetShiftRequest selects a shift for a (teacher, subject, group) triple.
type SetShiftRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
	Shift     string `json:"shift" validate:"required"`
}
