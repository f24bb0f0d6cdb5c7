package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type generatorRegistry interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
}

type generatorConfigProvider interface {
	Current() (models.GeneratorConfig, models.ShiftTable)
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	Timeout time.Duration
}

// TimetableGeneratorService fills the timetable from the generator configuration using
// a deterministic greedy first-fit pass.
type TimetableGeneratorService struct {
	store    *ScheduleStore
	detector *ConflictDetector
	grid     *TimeGrid
	registry generatorRegistry
	configs  generatorConfigProvider
	logger   *zap.Logger
	metrics  *MetricsService
	timeout  time.Duration
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	store *ScheduleStore,
	detector *ConflictDetector,
	grid *TimeGrid,
	registry generatorRegistry,
	configs generatorConfigProvider,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = NewConflictDetector(nil, logger)
	}
	return &TimetableGeneratorService{
		store:    store,
		detector: detector,
		grid:     grid,
		registry: registry,
		configs:  configs,
		logger:   logger,
		metrics:  metrics,
		timeout:  cfg.Timeout,
	}
}

// Preview runs the algorithm without touching the schedule store.
func (s *TimetableGeneratorService) Preview(ctx context.Context) (*dto.GenerationResult, error) {
	return s.run(ctx, false)
}

// Generate runs the algorithm and replaces the whole schedule store with the result.
// A cancelled or failed run leaves the store untouched.
func (s *TimetableGeneratorService) Generate(ctx context.Context) (*dto.GenerationResult, error) {
	var result *dto.GenerationResult
	err := s.store.Exclusive(func() error {
		var runErr error
		result, runErr = s.run(ctx, true)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TimetableGeneratorService) run(ctx context.Context, commit bool) (*dto.GenerationResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	logger := s.logger
	if reqID := requestid.FromContext(ctx); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}

	teachers, err := s.registry.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	groups, err := s.registry.ListGroups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	cfg, shifts := s.configs.Current()

	state := newGenerationState(s.grid, s.detector, groups)
	if err := state.fill(ctx, teachers, cfg, shifts, logger); err != nil {
		s.metrics.RecordGeneration("cancelled", time.Since(started), 0, 0)
		return nil, err
	}

	result := &dto.GenerationResult{
		Assignments: state.batch.items,
		Unfulfilled: state.unfulfilled,
		Stats: dto.GenerationStats{
			Teachers: state.teachers,
			Triples:  state.triples,
			Placed:   len(state.batch.items),
			Missing:  state.missing(),
		},
	}

	if commit {
		s.store.ReplaceAll(result.Assignments)
		result.Committed = true
		_, result.Assignments = s.store.Snapshot()
	}
	result.Stats.Duration = time.Since(started)

	outcome := "preview"
	if commit {
		outcome = "committed"
	}
	s.metrics.RecordGeneration(outcome, result.Stats.Duration, result.Stats.Placed, result.Stats.Missing)
	for _, quota := range result.Unfulfilled {
		logger.Warn("weekly hours not fully placed",
			zap.String("teacher_id", quota.TeacherID),
			zap.String("subject_id", quota.SubjectID),
			zap.Int("required", quota.Required),
			zap.Int("placed", quota.Placed),
		)
	}
	logger.Info("timetable generated",
		zap.Bool("committed", result.Committed),
		zap.Int("placed", result.Stats.Placed),
		zap.Int("missing", result.Stats.Missing),
		zap.Duration("duration", result.Stats.Duration),
	)
	return result, nil
}

// --- Generation state ---

type gridCellKey struct {
	Weekday models.Weekday
	Block   int
}

type cellOccupancy struct {
	teachers map[string]bool
	groups   map[string]bool
}

// availabilityMatrix tracks who occupies each (weekday, block) cell during one run.
type availabilityMatrix struct {
	cells map[gridCellKey]*cellOccupancy
}

func newAvailabilityMatrix() *availabilityMatrix {
	return &availabilityMatrix{cells: make(map[gridCellKey]*cellOccupancy)}
}

func (m *availabilityMatrix) occupied(key gridCellKey, teacherID, groupID string) bool {
	cell := m.cells[key]
	if cell == nil {
		return false
	}
	return cell.teachers[teacherID] || cell.groups[groupID]
}

func (m *availabilityMatrix) mark(key gridCellKey, teacherID, groupID string) {
	cell := m.cells[key]
	if cell == nil {
		cell = &cellOccupancy{teachers: make(map[string]bool), groups: make(map[string]bool)}
		m.cells[key] = cell
	}
	cell.teachers[teacherID] = true
	cell.groups[groupID] = true
}

// generationBatch is the in-progress result; the detector scans it like the store.
type generationBatch struct {
	items []models.Assignment
}

func (b *generationBatch) Find(predicate func(models.Assignment) bool) []models.Assignment {
	var result []models.Assignment
	for _, item := range b.items {
		if predicate == nil || predicate(item) {
			result = append(result, item)
		}
	}
	return result
}

type generationState struct {
	grid        *TimeGrid
	detector    *ConflictDetector
	groups      map[string]bool
	matrix      *availabilityMatrix
	batch       *generationBatch
	unfulfilled []models.UnfulfilledQuota
	teachers    int
	triples     int
}

func newGenerationState(grid *TimeGrid, detector *ConflictDetector, groups []models.Group) *generationState {
	known := make(map[string]bool, len(groups))
	for _, group := range groups {
		known[group.ID] = true
	}
	return &generationState{
		grid:        grid,
		detector:    detector,
		groups:      known,
		matrix:      newAvailabilityMatrix(),
		batch:       &generationBatch{items: make([]models.Assignment, 0)},
		unfulfilled: make([]models.UnfulfilledQuota, 0),
	}
}

func (g *generationState) fill(ctx context.Context, teachers []models.Teacher, cfg models.GeneratorConfig, shifts models.ShiftTable, logger *zap.Logger) error {
	for _, teacher := range teachers {
		plan, ok := cfg.Plan(teacher.ID)
		if !ok || len(plan.Subjects) == 0 {
			continue
		}
		g.teachers++
		for _, subject := range plan.Subjects {
			if err := ctx.Err(); err != nil {
				return appErrors.Wrap(err, appErrors.ErrCancelled.Code, appErrors.ErrCancelled.Status, "timetable generation cancelled")
			}
			if !teacher.Teaches(subject.SubjectID) {
				logger.Warn("skipping subject not taught by teacher", zap.String("teacher_id", teacher.ID), zap.String("subject_id", subject.SubjectID))
				continue
			}
			// Weekly hours are a budget for the (teacher, subject) pair, spent across its
			// groups in configured order.
			remaining := subject.WeeklyHours
			targeted := false
			for _, groupID := range subject.GroupIDs {
				if !g.groups[groupID] {
					logger.Warn("skipping unknown group", zap.String("teacher_id", teacher.ID), zap.String("group_id", groupID))
					continue
				}
				g.triples++
				targeted = true
				if remaining <= 0 {
					continue
				}
				key := models.ShiftKey{TeacherID: teacher.ID, SubjectID: subject.SubjectID, GroupID: groupID}
				remaining -= g.place(key, shifts.Lookup(key), remaining)
			}
			if targeted && remaining > 0 {
				g.unfulfilled = append(g.unfulfilled, models.UnfulfilledQuota{
					TeacherID: teacher.ID,
					SubjectID: subject.SubjectID,
					Required:  subject.WeeklyHours,
					Placed:    subject.WeeklyHours - remaining,
				})
			}
		}
	}
	return nil
}

// place fills up to hours free cells for the triple and returns how many it placed.
func (g *generationState) place(key models.ShiftKey, shift models.Shift, hours int) int {
	blocks := g.grid.BlocksForShift(shift)
	placed := 0
	for _, day := range g.grid.Weekdays() {
		if placed == hours {
			break
		}
		for _, block := range blocks {
			if placed == hours {
				break
			}
			if block.IsBreak {
				continue
			}
			cell := gridCellKey{Weekday: day, Block: block.Index}
			if g.matrix.occupied(cell, key.TeacherID, key.GroupID) {
				continue
			}
			candidate := models.Assignment{
				Weekday:   day,
				StartTime: block.StartTime,
				EndTime:   block.EndTime,
				SubjectID: key.SubjectID,
				TeacherID: key.TeacherID,
				GroupID:   key.GroupID,
			}
			if g.detector.HasConflict(g.batch, candidate) {
				continue
			}
			g.matrix.mark(cell, key.TeacherID, key.GroupID)
			g.batch.items = append(g.batch.items, candidate)
			placed++
		}
	}
	return placed
}

func (g *generationState) missing() int {
	total := 0
	for _, quota := range g.unfulfilled {
		total += quota.Missing()
	}
	return total
}
