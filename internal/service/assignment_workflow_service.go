package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const (
	defaultWorkflowSessionTTL = 2 * time.Hour

	promptSelectSubject = "select a subject first"
	promptSelectGroup   = "select a group for this lesson"
	promptConfirmDelete = "confirm removal of this assignment"
)

// WorkflowConfig governs manual assignment sessions.
type WorkflowConfig struct {
	SessionTTL time.Duration
}

// AssignmentWorkflowService drives the manual assignment state machine. Each transition
// takes a session value and returns the next one inside the outcome; sessions are kept
// server side between requests.
type AssignmentWorkflowService struct {
	store    *ScheduleStore
	detector *ConflictDetector
	grid     *TimeGrid
	registry entityRegistry
	sessions *WorkflowSessionStore
	logger   *zap.Logger
	metrics  *MetricsService
	now      func() time.Time

	// mu makes every transition run to completion before the next one starts.
	mu sync.Mutex
}

// NewAssignmentWorkflowService wires workflow dependencies.
func NewAssignmentWorkflowService(
	store *ScheduleStore,
	detector *ConflictDetector,
	grid *TimeGrid,
	registry entityRegistry,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg WorkflowConfig,
) *AssignmentWorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = NewConflictDetector(registry, logger)
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultWorkflowSessionTTL
	}
	return &AssignmentWorkflowService{
		store:    store,
		detector: detector,
		grid:     grid,
		registry: registry,
		sessions: NewWorkflowSessionStore(ttl),
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Start opens a new idle session.
func (s *AssignmentWorkflowService) Start() models.WorkflowSession {
	session := models.WorkflowSession{ID: uuid.NewString(), State: models.WorkflowIdle, UpdatedAt: s.now().UTC()}
	s.sessions.Save(session)
	return session
}

// SweepSessions forgets sessions idle for longer than the configured ttl.
func (s *AssignmentWorkflowService) SweepSessions() int {
	removed := s.sessions.Sweep()
	if removed > 0 {
		s.logger.Debug("idle workflow sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Session loads a stored session.
func (s *AssignmentWorkflowService) Session(id string) (models.WorkflowSession, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return models.WorkflowSession{}, appErrors.Clone(appErrors.ErrNotFound, "workflow session not found")
	}
	return session, nil
}

// WorkflowTransition computes the next session from the current one.
type WorkflowTransition func(session models.WorkflowSession) (*dto.WorkflowOutcome, error)

// Apply loads the session, runs the transition and stores whatever session the
// transition settled on, including after a rejected step.
func (s *AssignmentWorkflowService) Apply(sessionID string, transition WorkflowTransition) (*dto.WorkflowOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	outcome, err := transition(session)
	if outcome != nil && outcome.Session.ID != "" {
		outcome.Session.UpdatedAt = s.now().UTC()
		s.sessions.Save(outcome.Session)
	}
	return outcome, err
}

// SelectEntity anchors the session on a teacher or group. Subject and cell are reset.
func (s *AssignmentWorkflowService) SelectEntity(ctx context.Context, session models.WorkflowSession, kind models.EntityKind, entityID string) (*dto.WorkflowOutcome, error) {
	kind = models.EntityKind(strings.ToUpper(string(kind)))
	if !kind.Valid() || strings.TrimSpace(entityID) == "" {
		return unchanged(session), appErrors.Clone(appErrors.ErrValidation, "entity kind and id are required")
	}
	if err := s.ensureEntity(ctx, kind, entityID); err != nil {
		return unchanged(session), err
	}
	next := session
	next.Anchor = models.EntityRef{Kind: kind, ID: entityID}
	next.SubjectID = ""
	next.Cell = nil
	next.Conflicts = nil
	next.State = models.WorkflowEntitySelected
	return &dto.WorkflowOutcome{Session: next}, nil
}

// EligibleSubjects lists the subjects the anchor may pick: a teacher's own subjects or
// every subject for a group.
func (s *AssignmentWorkflowService) EligibleSubjects(ctx context.Context, session models.WorkflowSession) ([]models.Subject, error) {
	if session.Anchor.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a teacher or group first")
	}
	if s.registry == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "entity registry unavailable")
	}
	if session.Anchor.Kind.IsTeacher() {
		teacher, err := s.registry.FindTeacher(ctx, session.Anchor.ID)
		if err != nil {
			return nil, registryError(err, "teacher")
		}
		return teacher.Subjects, nil
	}
	subjects, err := s.registry.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	return subjects, nil
}

// SelectSubject picks the subject for the following cell taps.
func (s *AssignmentWorkflowService) SelectSubject(ctx context.Context, session models.WorkflowSession, subjectID string) (*dto.WorkflowOutcome, error) {
	subjects, err := s.EligibleSubjects(ctx, session)
	if err != nil {
		return unchanged(session), err
	}
	eligible := false
	for _, subject := range subjects {
		if subject.ID == subjectID {
			eligible = true
			break
		}
	}
	if !eligible {
		return unchanged(session), appErrors.Clone(appErrors.ErrValidation, "subject is not eligible for the selected entity")
	}
	next := session
	next.SubjectID = subjectID
	next.Cell = nil
	next.Conflicts = nil
	next.State = models.WorkflowSubjectSelected
	return &dto.WorkflowOutcome{Session: next}, nil
}

// ChooseCell taps a grid cell. A teacher anchor continues to counterpart selection; a
// group anchor commits directly.
func (s *AssignmentWorkflowService) ChooseCell(ctx context.Context, session models.WorkflowSession, weekday models.Weekday, blockIndex int) (*dto.WorkflowOutcome, error) {
	if session.SubjectID == "" {
		outcome := unchanged(session)
		outcome.Prompt = promptSelectSubject
		return outcome, appErrors.Clone(appErrors.ErrValidation, promptSelectSubject)
	}
	block, err := s.assignableBlock(weekday, blockIndex)
	if err != nil {
		return unchanged(session), err
	}

	next := session
	next.Cell = &models.GridCell{Weekday: weekday, BlockIndex: block.Index}
	next.Conflicts = nil

	if session.Anchor.Kind.IsTeacher() {
		next.State = models.WorkflowCounterpartSelection
		return &dto.WorkflowOutcome{Session: next, NeedsGroup: true, Prompt: promptSelectGroup}, nil
	}

	next.State = models.WorkflowCellChosen
	return s.commitForGroup(ctx, next, block)
}

// SelectCounterpart resolves the group for a teacher anchored session and commits after
// checking both the teacher and the group.
func (s *AssignmentWorkflowService) SelectCounterpart(ctx context.Context, session models.WorkflowSession, groupID string) (*dto.WorkflowOutcome, error) {
	if session.State != models.WorkflowCounterpartSelection || session.Cell == nil {
		return unchanged(session), appErrors.Clone(appErrors.ErrPreconditionFailed, "no cell is waiting for a group")
	}
	if err := s.ensureEntity(ctx, models.EntityGroup, groupID); err != nil {
		return unchanged(session), err
	}
	block, err := s.assignableBlock(session.Cell.Weekday, session.Cell.BlockIndex)
	if err != nil {
		return unchanged(session), err
	}

	next := session
	next.Cell = nil
	next.Conflicts = nil
	next.State = models.WorkflowSubjectSelected

	var committed models.Assignment
	err = s.store.Exclusive(func() error {
		existing, found := s.occupant(session.Cell.Weekday, block, session.Anchor)
		// Only the same teacher and group pair is edited in place; anything else on the
		// cell is a collision.
		found = found && existing.GroupID == groupID
		candidate := models.Assignment{
			Weekday:   session.Cell.Weekday,
			StartTime: block.StartTime,
			EndTime:   block.EndTime,
			SubjectID: session.SubjectID,
			TeacherID: session.Anchor.ID,
			GroupID:   groupID,
		}
		if found {
			candidate.ID = existing.ID
		}
		if conflicts := s.detector.Collisions(ctx, s.store, candidate); len(conflicts) > 0 {
			next.Conflicts = conflicts
			s.metrics.RecordConflicts("workflow", len(conflicts))
			return conflictError(conflicts, "assignment collides with existing lessons")
		}
		if found {
			subjectID := candidate.SubjectID
			updated, updateErr := s.store.Update(existing.ID, models.AssignmentPatch{SubjectID: &subjectID})
			if updateErr != nil {
				return updateErr
			}
			committed = updated
			return nil
		}
		committed = s.store.Add(candidate)
		return nil
	})
	if err != nil {
		return &dto.WorkflowOutcome{Session: next}, err
	}
	s.logger.Info("assignment committed",
		zap.String("assignment_id", committed.ID),
		zap.String("teacher_id", committed.TeacherID),
		zap.String("group_id", committed.GroupID),
		zap.String("weekday", string(committed.Weekday)),
		zap.String("start_time", committed.StartTime),
	)
	return &dto.WorkflowOutcome{Session: next, Committed: &committed}, nil
}

// Cancel abandons the current cell and returns to the last stable selection.
func (s *AssignmentWorkflowService) Cancel(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
	next := session
	next.Cell = nil
	next.Conflicts = nil
	switch {
	case next.SubjectID != "":
		next.State = models.WorkflowSubjectSelected
	case !next.Anchor.IsZero():
		next.State = models.WorkflowEntitySelected
	default:
		next.State = models.WorkflowIdle
	}
	return &dto.WorkflowOutcome{Session: next}, nil
}

// DeleteCell removes the anchor's assignment on a cell. Without confirmation the
// assignment is returned for the caller to confirm.
func (s *AssignmentWorkflowService) DeleteCell(session models.WorkflowSession, weekday models.Weekday, blockIndex int, confirmed bool) (*dto.WorkflowOutcome, error) {
	if session.Anchor.IsZero() {
		return unchanged(session), appErrors.Clone(appErrors.ErrValidation, "select a teacher or group first")
	}
	block, err := s.assignableBlock(weekday, blockIndex)
	if err != nil {
		return unchanged(session), err
	}

	outcome := unchanged(session)
	err = s.store.Exclusive(func() error {
		existing, found := s.occupant(weekday, block, session.Anchor)
		if !found {
			return appErrors.Clone(appErrors.ErrNotFound, "no assignment on this cell")
		}
		if !confirmed {
			outcome.Pending = &existing
			outcome.Prompt = promptConfirmDelete
			return appErrors.Clone(appErrors.ErrPreconditionFailed, promptConfirmDelete)
		}
		if removeErr := s.store.Remove(existing.ID); removeErr != nil {
			return removeErr
		}
		outcome.Removed = 1
		return nil
	})
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			s.logger.Warn("delete on empty cell ignored", zap.String("weekday", string(weekday)), zap.Int("block", blockIndex), zap.String("entity_id", session.Anchor.ID))
		}
		return outcome, err
	}
	return outcome, nil
}

// ClearAll removes every assignment referencing the anchor entity.
func (s *AssignmentWorkflowService) ClearAll(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
	if session.Anchor.IsZero() {
		return unchanged(session), appErrors.Clone(appErrors.ErrValidation, "select a teacher or group first")
	}
	var removed int
	s.store.ExclusiveDo(func() {
		removed = s.store.RemoveAllFor(session.Anchor.ID, session.Anchor.Kind.IsTeacher())
	})
	s.logger.Info("assignments cleared", zap.String("entity_id", session.Anchor.ID), zap.String("kind", string(session.Anchor.Kind)), zap.Int("removed", removed))
	outcome := unchanged(session)
	outcome.Removed = removed
	return outcome, nil
}

func (s *AssignmentWorkflowService) commitForGroup(ctx context.Context, session models.WorkflowSession, block models.TimeBlock) (*dto.WorkflowOutcome, error) {
	weekday := session.Cell.Weekday
	next := session
	next.Cell = nil
	next.State = models.WorkflowSubjectSelected

	var committed models.Assignment
	err := s.store.Exclusive(func() error {
		if existing, found := s.occupant(weekday, block, session.Anchor); found {
			// Teacher and group are unchanged, so only the subject moves.
			if err := ensureQualified(ctx, s.registry, models.Assignment{TeacherID: existing.TeacherID, SubjectID: session.SubjectID}); err != nil {
				return err
			}
			subjectID := session.SubjectID
			updated, updateErr := s.store.Update(existing.ID, models.AssignmentPatch{SubjectID: &subjectID})
			if updateErr != nil {
				return updateErr
			}
			committed = updated
			return nil
		}
		conflicts := s.detector.ConflictDetails(ctx, s.store, weekday, block.StartTime, block.EndTime, session.Anchor.ID, false, "")
		if len(conflicts) > 0 {
			next.Conflicts = conflicts
			s.metrics.RecordConflicts("workflow", len(conflicts))
			return conflictError(conflicts, "group already has a lesson in this period")
		}
		committed = s.store.Add(models.Assignment{
			Weekday:   weekday,
			StartTime: block.StartTime,
			EndTime:   block.EndTime,
			SubjectID: session.SubjectID,
			GroupID:   session.Anchor.ID,
		})
		return nil
	})
	if err != nil {
		return &dto.WorkflowOutcome{Session: next}, err
	}
	return &dto.WorkflowOutcome{Session: next, Committed: &committed}, nil
}

// occupant finds the anchor's assignment overlapping the block on weekday.
func (s *AssignmentWorkflowService) occupant(weekday models.Weekday, block models.TimeBlock, anchor models.EntityRef) (models.Assignment, bool) {
	matches := s.store.Find(func(a models.Assignment) bool {
		return a.Weekday == weekday &&
			a.References(anchor.ID, anchor.Kind.IsTeacher()) &&
			models.Overlaps(a.StartTime, a.EndTime, block.StartTime, block.EndTime)
	})
	if len(matches) == 0 {
		return models.Assignment{}, false
	}
	return matches[0], true
}

func (s *AssignmentWorkflowService) assignableBlock(weekday models.Weekday, blockIndex int) (models.TimeBlock, error) {
	if !s.grid.HasWeekday(weekday) {
		return models.TimeBlock{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %s is not part of the grid", weekday))
	}
	block, ok := s.grid.Block(blockIndex)
	if !ok {
		return models.TimeBlock{}, appErrors.Clone(appErrors.ErrValidation, "unknown time block")
	}
	if s.grid.IsBreak(block) {
		return models.TimeBlock{}, appErrors.Clone(appErrors.ErrValidation, "break block cannot host an assignment")
	}
	return block, nil
}

func (s *AssignmentWorkflowService) ensureEntity(ctx context.Context, kind models.EntityKind, id string) error {
	if s.registry == nil {
		return nil
	}
	var err error
	if kind.IsTeacher() {
		_, err = s.registry.FindTeacher(ctx, id)
	} else {
		_, err = s.registry.FindGroup(ctx, id)
	}
	if err != nil {
		return registryError(err, strings.ToLower(string(kind)))
	}
	return nil
}

func unchanged(session models.WorkflowSession) *dto.WorkflowOutcome {
	return &dto.WorkflowOutcome{Session: session}
}

func registryError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// conflictError wraps the collisions so handlers can unpack them with errors.As.
func conflictError(conflicts []models.ConflictInfo, message string) *appErrors.Error {
	detail := &models.ScheduleConflictError{Type: "SCHEDULE_CONFLICT", Message: message, Conflicts: conflicts}
	return appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

// --- Session store ---

// WorkflowSessionStore keeps workflow sessions in memory until they go idle for longer
// than the ttl.
type WorkflowSessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.WorkflowSession
}

// NewWorkflowSessionStore constructs a store with the given ttl.
func NewWorkflowSessionStore(ttl time.Duration) *WorkflowSessionStore {
	return &WorkflowSessionStore{
		ttl:   ttl,
		items: make(map[string]models.WorkflowSession),
	}
}

func (s *WorkflowSessionStore) Save(session models.WorkflowSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = session
}

func (s *WorkflowSessionStore) Get(id string) (models.WorkflowSession, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.WorkflowSession{}, false
	}
	if time.Since(session.UpdatedAt) > s.ttl {
		s.Delete(id)
		return models.WorkflowSession{}, false
	}
	return session, true
}

func (s *WorkflowSessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Sweep drops idle sessions and returns how many were removed.
func (s *WorkflowSessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.items {
		if time.Since(session.UpdatedAt) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
