package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// PersistJobType identifies snapshot writes on the jobs queue.
const PersistJobType = "timetable.persist"

type assignmentPersister interface {
	List(ctx context.Context) ([]models.Assignment, error)
	ReplaceAll(ctx context.Context, assignments []models.Assignment) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SchedulePersistenceService mirrors the schedule store into the database in the
// background. Failures never touch the in-memory state; they surface as warnings.
type SchedulePersistenceService struct {
	store   *ScheduleStore
	repo    assignmentPersister
	logger  *zap.Logger
	metrics *MetricsService

	mu      sync.Mutex
	queue   jobEnqueuer
	written uint64
	warning *models.PersistenceWarning
}

// NewSchedulePersistenceService constructs the service. Call Attach once the queue that
// runs HandleJob exists.
func NewSchedulePersistenceService(store *ScheduleStore, repo assignmentPersister, logger *zap.Logger, metrics *MetricsService) *SchedulePersistenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulePersistenceService{store: store, repo: repo, logger: logger, metrics: metrics}
}

// Attach subscribes to store events and enqueues a snapshot write for each one. The
// returned function detaches the subscription.
func (s *SchedulePersistenceService) Attach(queue jobEnqueuer) func() {
	s.mu.Lock()
	s.queue = queue
	s.mu.Unlock()
	return s.store.Subscribe(s.onEvent)
}

func (s *SchedulePersistenceService) onEvent(event models.ScheduleEvent) {
	if event.Kind == models.ScheduleEventRestored {
		return
	}
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: PersistJobType, Payload: event.Version}
	if err := queue.Enqueue(job); err != nil {
		s.recordFailure(event.Version, err)
	}
}

// HandleJob writes the current snapshot unless a newer write already covers it.
func (s *SchedulePersistenceService) HandleJob(ctx context.Context, job jobs.Job) error {
	version, ok := job.Payload.(uint64)
	if !ok {
		return fmt.Errorf("unexpected persistence payload %T", job.Payload)
	}
	current, snapshot := s.store.Snapshot()
	s.mu.Lock()
	written := s.written
	s.mu.Unlock()
	if version < current || current <= written {
		s.logger.Debug("skipping stale snapshot write", zap.Uint64("version", version), zap.Uint64("current", current))
		return nil
	}

	started := time.Now()
	if err := s.repo.ReplaceAll(ctx, snapshot); err != nil {
		s.recordFailure(current, err)
		return err
	}
	s.metrics.ObserveDBQuery("assignments_replace_all", time.Since(started))

	s.mu.Lock()
	if current > s.written {
		s.written = current
	}
	s.warning = nil
	s.mu.Unlock()
	s.logger.Debug("schedule snapshot persisted", zap.Uint64("version", current), zap.Int("assignments", len(snapshot)))
	return nil
}

// Restore loads persisted assignments into the store.
func (s *SchedulePersistenceService) Restore(ctx context.Context) error {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore assignments")
	}
	s.store.Restore(assignments)
	s.mu.Lock()
	s.written = s.store.Version()
	s.mu.Unlock()
	s.metrics.SetAssignments(s.store.Len())
	s.logger.Info("schedule restored", zap.Int("assignments", len(assignments)))
	return nil
}

// LastWarning returns the outstanding warning, if the most recent write failed.
func (s *SchedulePersistenceService) LastWarning() *models.PersistenceWarning {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warning == nil {
		return nil
	}
	warning := *s.warning
	return &warning
}

func (s *SchedulePersistenceService) recordFailure(version uint64, err error) {
	s.logger.Warn("schedule snapshot not persisted", zap.Uint64("version", version), zap.Error(err))
	s.metrics.RecordPersistenceFailure("schedule")
	s.mu.Lock()
	s.warning = &models.PersistenceWarning{Version: version, Message: appErrors.ErrPersistence.Message, OccurredAt: time.Now().UTC()}
	s.mu.Unlock()
}
