package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// AssignmentService exposes direct reads and edits of the schedule store. Every write
// passes the conflict detector first.
type AssignmentService struct {
	store     *ScheduleStore
	detector  *ConflictDetector
	grid      *TimeGrid
	registry  entityRegistry
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAssignmentService constructs the service.
func NewAssignmentService(store *ScheduleStore, detector *ConflictDetector, grid *TimeGrid, registry entityRegistry, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = NewConflictDetector(registry, logger)
	}
	return &AssignmentService{
		store:     store,
		detector:  detector,
		grid:      grid,
		registry:  registry,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// List returns assignments matching the filter in display order.
func (s *AssignmentService) List(filter models.AssignmentFilter) []models.Assignment {
	return s.store.Find(filter.Matches)
}

// Get returns a single assignment.
func (s *AssignmentService) Get(id string) (*models.Assignment, error) {
	assignment, ok := s.store.Get(id)
	if !ok {
		s.logger.Warn("assignment not found", zap.String("assignment_id", id))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return &assignment, nil
}

// Update patches subject, teacher or group of an assignment after re-checking conflicts
// for the resulting assignment.
func (s *AssignmentService) Update(ctx context.Context, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	patch := models.AssignmentPatch{SubjectID: req.SubjectID, TeacherID: req.TeacherID, GroupID: req.GroupID}

	var updated models.Assignment
	err := s.store.Exclusive(func() error {
		existing, ok := s.store.Get(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		candidate := patch.Apply(existing)
		if candidate == existing {
			updated = existing
			return nil
		}
		if candidate.SubjectID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "subject is required")
		}
		if err := ensureQualified(ctx, s.registry, candidate); err != nil {
			return err
		}
		if conflicts := s.detector.Collisions(ctx, s.store, candidate); len(conflicts) > 0 {
			s.metrics.RecordConflicts("update", len(conflicts))
			return conflictError(conflicts, "assignment collides with existing lessons")
		}
		var updateErr error
		updated, updateErr = s.store.Update(id, patch)
		return updateErr
	})
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			s.logger.Warn("update of unknown assignment ignored", zap.String("assignment_id", id))
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes one assignment.
func (s *AssignmentService) Delete(id string) error {
	err := s.store.Exclusive(func() error {
		return s.store.Remove(id)
	})
	if err != nil && appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
		s.logger.Warn("delete of unknown assignment ignored", zap.String("assignment_id", id))
	}
	return err
}

// ClearFor cascades a delete over every assignment referencing the entity.
func (s *AssignmentService) ClearFor(entityID string, isTeacher bool) int {
	var removed int
	s.store.ExclusiveDo(func() {
		removed = s.store.RemoveAllFor(entityID, isTeacher)
	})
	s.logger.Info("assignments cleared", zap.String("entity_id", entityID), zap.Bool("teacher", isTeacher), zap.Int("removed", removed))
	return removed
}

// CheckConflicts reports collisions for a hypothetical assignment without writing it.
func (s *AssignmentService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check")
	}
	weekday, ok := models.ParseWeekday(req.Weekday)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", req.Weekday))
	}
	if _, err := models.ParseClock(req.StartTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	if _, err := models.ParseClock(req.EndTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if s.grid != nil && s.grid.IsBreak(models.TimeBlock{Index: -1, StartTime: req.StartTime, EndTime: req.EndTime}) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "break block cannot host an assignment")
	}
	if req.TeacherID == "" && req.GroupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id or group_id is required")
	}
	candidate := models.Assignment{
		ID:        req.IgnoreID,
		Weekday:   weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		TeacherID: req.TeacherID,
		GroupID:   req.GroupID,
	}
	conflicts := s.detector.Collisions(ctx, s.store, candidate)
	if conflicts == nil {
		conflicts = make([]models.ConflictInfo, 0)
	}
	return &dto.ConflictCheckResponse{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

func ensureQualified(ctx context.Context, registry entityRegistry, candidate models.Assignment) error {
	if registry == nil || candidate.TeacherID == "" {
		return nil
	}
	teacher, err := registry.FindTeacher(ctx, candidate.TeacherID)
	if err != nil {
		return registryError(err, "teacher")
	}
	if !teacher.Teaches(candidate.SubjectID) {
		return appErrors.Clone(appErrors.ErrValidation, "teacher is not qualified for the subject")
	}
	return nil
}
