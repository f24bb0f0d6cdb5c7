package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Keys under which the generator input is kept in the key-value store.
const (
	GeneratorConfigKey = "timetable:generator_config"
	GeneratorShiftsKey = "timetable:generator_shifts"
)

// KeyValueStore persists JSON payloads by key. Get returns ErrCacheMiss for absent keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type teacherReader interface {
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
}

// GeneratorConfigService holds the cached generator input and mirrors every change to
// the key-value store.
type GeneratorConfigService struct {
	mu     sync.RWMutex
	config models.GeneratorConfig
	shifts models.ShiftTable

	// saveMu orders edits and their writes to the key-value store alike.
	saveMu sync.Mutex

	kv        KeyValueStore
	teachers  teacherReader
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewGeneratorConfigService constructs the service with an empty configuration.
func NewGeneratorConfigService(kv KeyValueStore, teachers teacherReader, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *GeneratorConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorConfigService{
		shifts:    models.NewShiftTable(nil),
		kv:        kv,
		teachers:  teachers,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// Load replaces the cached configuration with the persisted one. Missing keys leave an
// empty configuration.
func (s *GeneratorConfigService) Load(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	var cfg models.GeneratorConfig
	if err := s.kv.Get(ctx, GeneratorConfigKey, &cfg); err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generator configuration")
	}
	var selections []models.ShiftSelection
	if err := s.kv.Get(ctx, GeneratorShiftsKey, &selections); err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generator shifts")
	}

	s.mu.Lock()
	s.config = models.NewGeneratorConfig(cfg.Teachers)
	s.shifts = models.NewShiftTable(selections)
	s.mu.Unlock()

	s.logger.Info("generator configuration loaded", zap.Int("teachers", len(cfg.Teachers)), zap.Int("shifts", len(selections)))
	return nil
}

// Current returns the configuration and shift table in effect.
func (s *GeneratorConfigService) Current() (models.GeneratorConfig, models.ShiftTable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.shifts
}

// PutTeacherPlan validates and stores the plan for a teacher, replacing any previous one.
func (s *GeneratorConfigService) PutTeacherPlan(ctx context.Context, plan models.TeacherPlan) (models.GeneratorConfig, *models.PersistenceWarning, error) {
	if err := s.validator.Struct(plan); err != nil {
		return models.GeneratorConfig{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generator plan")
	}
	plan, err := normalisePlan(plan)
	if err != nil {
		return models.GeneratorConfig{}, nil, err
	}
	if err := s.ensureQualified(ctx, plan); err != nil {
		return models.GeneratorConfig{}, nil, err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.config = s.config.WithPlan(plan)
	cfg, shifts := s.config, s.shifts
	s.mu.Unlock()

	return cfg, s.persist(ctx, cfg, shifts), nil
}

// RemoveTeacherPlan drops a teacher's plan along with their shift selections.
func (s *GeneratorConfigService) RemoveTeacherPlan(ctx context.Context, teacherID string) (models.GeneratorConfig, *models.PersistenceWarning, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	if _, ok := s.config.Plan(teacherID); !ok {
		s.mu.Unlock()
		return models.GeneratorConfig{}, nil, appErrors.Clone(appErrors.ErrNotFound, "generator plan not found")
	}
	s.config = s.config.WithoutPlan(teacherID)
	s.shifts = s.shifts.WithoutTeacher(teacherID)
	cfg, shifts := s.config, s.shifts
	s.mu.Unlock()

	return cfg, s.persist(ctx, cfg, shifts), nil
}

// SetShift records the shift for a (teacher, subject, group) triple.
func (s *GeneratorConfigService) SetShift(ctx context.Context, selection models.ShiftSelection) (models.ShiftTable, *models.PersistenceWarning, error) {
	if shift, ok := models.ParseShift(string(selection.Shift)); ok {
		selection.Shift = shift
	}
	if err := s.validator.Struct(selection); err != nil {
		return models.ShiftTable{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift selection")
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.shifts = s.shifts.With(selection.ShiftKey, selection.Shift)
	cfg, shifts := s.config, s.shifts
	s.mu.Unlock()

	return shifts, s.persist(ctx, cfg, shifts), nil
}

func (s *GeneratorConfigService) ensureQualified(ctx context.Context, plan models.TeacherPlan) error {
	if s.teachers == nil {
		return nil
	}
	teacher, err := s.teachers.FindTeacher(ctx, plan.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	for _, subject := range plan.Subjects {
		if !teacher.Teaches(subject.SubjectID) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s does not teach subject %s", plan.TeacherID, subject.SubjectID))
		}
	}
	return nil
}

func (s *GeneratorConfigService) persist(ctx context.Context, cfg models.GeneratorConfig, shifts models.ShiftTable) *models.PersistenceWarning {
	if s.kv == nil {
		return nil
	}
	err := s.kv.Set(ctx, GeneratorConfigKey, cfg, 0)
	if err == nil {
		err = s.kv.Set(ctx, GeneratorShiftsKey, shifts.Selections(), 0)
	}
	if err == nil {
		return nil
	}
	s.logger.Warn("generator configuration not persisted", zap.Error(err))
	s.metrics.RecordPersistenceFailure("generator_config")
	return &models.PersistenceWarning{Message: appErrors.ErrPersistence.Message, OccurredAt: time.Now().UTC()}
}

// normalisePlan rejects duplicate subjects and drops repeated groups while keeping order.
func normalisePlan(plan models.TeacherPlan) (models.TeacherPlan, error) {
	seenSubjects := make(map[string]bool, len(plan.Subjects))
	out := models.TeacherPlan{TeacherID: plan.TeacherID, Subjects: make([]models.SubjectPlan, 0, len(plan.Subjects))}
	for _, subject := range plan.Subjects {
		if seenSubjects[subject.SubjectID] {
			return models.TeacherPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s configured twice", subject.SubjectID))
		}
		seenSubjects[subject.SubjectID] = true
		seenGroups := make(map[string]bool, len(subject.GroupIDs))
		groups := make([]string, 0, len(subject.GroupIDs))
		for _, groupID := range subject.GroupIDs {
			if seenGroups[groupID] {
				continue
			}
			seenGroups[groupID] = true
			groups = append(groups, groupID)
		}
		subject.GroupIDs = groups
		out.Subjects = append(out.Subjects, subject)
	}
	return out, nil
}
