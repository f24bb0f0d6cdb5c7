package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Registry cache keys live under one prefix so a refresh can drop them together.
const (
	registryCachePattern = "timetable:registry:*"
	registryTeachersKey  = "timetable:registry:teachers"
	registrySubjectsKey  = "timetable:registry:subjects"
	registryGroupsKey    = "timetable:registry:groups"
)

type registryLister interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// CacheStore is a KeyValueStore that can also drop keys by pattern.
type CacheStore interface {
	KeyValueStore
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RegistryCacheService serves the entity registry from Redis, falling back to the
// database on a miss. Lookups by id are answered from the cached lists.
type RegistryCacheService struct {
	source  registryLister
	cache   CacheStore
	ttl     time.Duration
	enabled bool
	logger  *zap.Logger
	metrics *MetricsService
}

// NewRegistryCacheService constructs the cache. When disabled every call reaches source.
func NewRegistryCacheService(source registryLister, cache CacheStore, ttl time.Duration, enabled bool, logger *zap.Logger, metrics *MetricsService) *RegistryCacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryCacheService{source: source, cache: cache, ttl: ttl, enabled: enabled, logger: logger, metrics: metrics}
}

// Enabled indicates whether caching is active.
func (s *RegistryCacheService) Enabled() bool {
	return s != nil && s.enabled && s.cache != nil
}

func (s *RegistryCacheService) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	err := s.load(ctx, registryTeachersKey, &teachers, func() (interface{}, error) {
		fresh, err := s.source.ListTeachers(ctx)
		teachers = fresh
		return fresh, err
	})
	return teachers, err
}

func (s *RegistryCacheService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	err := s.load(ctx, registrySubjectsKey, &subjects, func() (interface{}, error) {
		fresh, err := s.source.ListSubjects(ctx)
		subjects = fresh
		return fresh, err
	})
	return subjects, err
}

func (s *RegistryCacheService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.load(ctx, registryGroupsKey, &groups, func() (interface{}, error) {
		fresh, err := s.source.ListGroups(ctx)
		groups = fresh
		return fresh, err
	})
	return groups, err
}

// FindTeacher returns sql.ErrNoRows when the teacher is not listed.
func (s *RegistryCacheService) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teachers, err := s.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teachers {
		if teachers[i].ID == id {
			return &teachers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *RegistryCacheService) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		if subjects[i].ID == id {
			return &subjects[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *RegistryCacheService) FindGroup(ctx context.Context, id string) (*models.Group, error) {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

// Invalidate drops every cached registry list.
func (s *RegistryCacheService) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.cache.DeleteByPattern(ctx, registryCachePattern); err != nil {
		s.logger.Warn("registry cache invalidate failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to refresh registry cache")
	}
	s.logger.Info("registry cache invalidated")
	return nil
}

// load fills dest from the cache or, on a miss, through fetch which also assigns dest.
func (s *RegistryCacheService) load(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	if s.Enabled() {
		start := time.Now()
		err := s.cache.Get(ctx, key, dest)
		s.metrics.ObserveKeyValue(time.Since(start))
		if err == nil {
			return nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("registry cache get failed", zap.String("key", key), zap.Error(err))
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}
	if s.Enabled() {
		if setErr := s.cache.Set(ctx, key, fresh, s.ttl); setErr != nil {
			s.logger.Warn("registry cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return nil
}
