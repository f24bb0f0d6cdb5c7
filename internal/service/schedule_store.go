package service

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ScheduleSubscriber receives a notification after each successful mutation.
type ScheduleSubscriber func(models.ScheduleEvent)

// ScheduleStore is the authoritative in-memory collection of assignments. It does not
// check scheduling invariants; callers gate writes through the ConflictDetector inside
// Exclusive.
type ScheduleStore struct {
	mu      sync.RWMutex
	items   map[string]models.Assignment
	version uint64

	// opMu serialises detector-then-write sequences and generation passes.
	opMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]ScheduleSubscriber
	nextSub     int

	logger *zap.Logger
}

// NewScheduleStore constructs an empty store.
func NewScheduleStore(logger *zap.Logger) *ScheduleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleStore{
		items:       make(map[string]models.Assignment),
		subscribers: make(map[int]ScheduleSubscriber),
		logger:      logger,
	}
}

// Exclusive runs fn while holding ownership of the store against other gated writers.
func (s *ScheduleStore) Exclusive(fn func() error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return fn()
}

// ExclusiveDo is Exclusive for writes that cannot fail.
func (s *ScheduleStore) ExclusiveDo(fn func()) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	fn()
}

// Subscribe registers fn and returns a function that removes it.
func (s *ScheduleStore) Subscribe(fn ScheduleSubscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Add stores the assignment, generating an id when absent.
func (s *ScheduleStore) Add(assignment models.Assignment) models.Assignment {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.items[assignment.ID] = assignment
	s.version++
	event := models.ScheduleEvent{Kind: models.ScheduleEventAdded, IDs: []string{assignment.ID}, Version: s.version, Count: len(s.items)}
	s.mu.Unlock()

	s.notify(event)
	return assignment
}

// Update applies patch to the assignment. Patching with the current values is a no-op.
func (s *ScheduleStore) Update(id string, patch models.AssignmentPatch) (models.Assignment, error) {
	s.mu.Lock()
	existing, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return models.Assignment{}, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	updated := patch.Apply(existing)
	if updated == existing {
		s.mu.Unlock()
		return existing, nil
	}
	s.items[id] = updated
	s.version++
	event := models.ScheduleEvent{Kind: models.ScheduleEventUpdated, IDs: []string{id}, Version: s.version, Count: len(s.items)}
	s.mu.Unlock()

	s.notify(event)
	return updated, nil
}

// Remove deletes a single assignment.
func (s *ScheduleStore) Remove(id string) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	delete(s.items, id)
	s.version++
	event := models.ScheduleEvent{Kind: models.ScheduleEventRemoved, IDs: []string{id}, Version: s.version, Count: len(s.items)}
	s.mu.Unlock()

	s.notify(event)
	return nil
}

// RemoveAllFor deletes every assignment referencing the teacher or group and returns
// how many were removed.
func (s *ScheduleStore) RemoveAllFor(entityID string, isTeacher bool) int {
	s.mu.Lock()
	var removed []string
	for id, assignment := range s.items {
		if assignment.References(entityID, isTeacher) {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0
	}
	for _, id := range removed {
		delete(s.items, id)
	}
	sort.Strings(removed)
	s.version++
	event := models.ScheduleEvent{Kind: models.ScheduleEventCleared, IDs: removed, Version: s.version, Count: len(s.items)}
	s.mu.Unlock()

	s.notify(event)
	return len(removed)
}

// ReplaceAll discards the current contents and stores the batch in one step.
func (s *ScheduleStore) ReplaceAll(assignments []models.Assignment) {
	s.swap(assignments, models.ScheduleEventReplaced)
}

// Restore loads previously persisted assignments. Subscribers see a RESTORED event so
// the persistence writer can skip echoing the data back.
func (s *ScheduleStore) Restore(assignments []models.Assignment) {
	s.swap(assignments, models.ScheduleEventRestored)
}

func (s *ScheduleStore) swap(assignments []models.Assignment, kind models.ScheduleEventKind) {
	next := make(map[string]models.Assignment, len(assignments))
	for _, assignment := range assignments {
		if assignment.ID == "" {
			assignment.ID = uuid.NewString()
		}
		next[assignment.ID] = assignment
	}
	s.mu.Lock()
	s.items = next
	s.version++
	event := models.ScheduleEvent{Kind: kind, Version: s.version, Count: len(s.items)}
	s.mu.Unlock()

	s.notify(event)
}

// Get returns the assignment with id.
func (s *ScheduleStore) Get(id string) (models.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.items[id]
	return assignment, ok
}

// Find returns matching assignments ordered by weekday, start time and id.
func (s *ScheduleStore) Find(predicate func(models.Assignment) bool) []models.Assignment {
	s.mu.RLock()
	result := make([]models.Assignment, 0)
	for _, assignment := range s.items {
		if predicate == nil || predicate(assignment) {
			result = append(result, assignment)
		}
	}
	s.mu.RUnlock()
	SortAssignments(result)
	return result
}

// All returns every assignment in display order.
func (s *ScheduleStore) All() []models.Assignment {
	return s.Find(nil)
}

// Len returns the number of stored assignments.
func (s *ScheduleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every mutation.
func (s *ScheduleStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the current version with a consistent copy of the contents.
func (s *ScheduleStore) Snapshot() (uint64, []models.Assignment) {
	s.mu.RLock()
	version := s.version
	result := make([]models.Assignment, 0, len(s.items))
	for _, assignment := range s.items {
		result = append(result, assignment)
	}
	s.mu.RUnlock()
	SortAssignments(result)
	return version, result
}

func (s *ScheduleStore) notify(event models.ScheduleEvent) {
	s.subMu.Lock()
	subscribers := make([]ScheduleSubscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subscribers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("schedule subscriber panicked", zap.Any("panic", r), zap.String("kind", string(event.Kind)))
				}
			}()
			fn(event)
		}()
	}
}

// SortAssignments orders assignments by weekday, start time, then id.
func SortAssignments(items []models.Assignment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Weekday != items[j].Weekday {
			return items[i].Weekday.Index() < items[j].Weekday.Index()
		}
		if items[i].StartTime != items[j].StartTime {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].ID < items[j].ID
	})
}
