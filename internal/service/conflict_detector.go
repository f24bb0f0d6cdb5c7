package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// assignmentSource is anything the detector can scan: the schedule store or an
// in-progress generator batch.
type assignmentSource interface {
	Find(predicate func(models.Assignment) bool) []models.Assignment
}

// entityRegistry is the read side of the external teacher/subject/group catalog.
type entityRegistry interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindGroup(ctx context.Context, id string) (*models.Group, error)
}

// ConflictDetector answers whether a candidate collides with existing assignments for
// the same teacher or group. Interval overlap on the same weekday is the only predicate.
type ConflictDetector struct {
	registry entityRegistry
	logger   *zap.Logger
}

// NewConflictDetector constructs a detector. registry may be nil, in which case display
// names fall back to ids.
func NewConflictDetector(registry entityRegistry, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{registry: registry, logger: logger}
}

// HasConflict reports whether any assignment in source other than candidate itself
// overlaps candidate on its weekday and shares its teacher or group.
func (d *ConflictDetector) HasConflict(source assignmentSource, candidate models.Assignment) bool {
	matches := source.Find(func(existing models.Assignment) bool {
		return collides(existing, candidate, candidate.TeacherID, true) ||
			collides(existing, candidate, candidate.GroupID, false)
	})
	return len(matches) > 0
}

// ConflictDetails lists every assignment for the entity overlapping [start,end) on the
// weekday, skipping ignoreID.
func (d *ConflictDetector) ConflictDetails(
	ctx context.Context,
	source assignmentSource,
	weekday models.Weekday,
	start, end string,
	entityID string,
	isTeacher bool,
	ignoreID string,
) []models.ConflictInfo {
	candidate := models.Assignment{ID: ignoreID, Weekday: weekday, StartTime: start, EndTime: end}
	matches := source.Find(func(existing models.Assignment) bool {
		return collides(existing, candidate, entityID, isTeacher)
	})
	if len(matches) == 0 {
		return nil
	}

	names := newNameCache(ctx, d.registry, d.logger)
	dimension := models.ConflictGroup
	if isTeacher {
		dimension = models.ConflictTeacher
	}
	result := make([]models.ConflictInfo, 0, len(matches))
	for _, existing := range matches {
		info := models.ConflictInfo{
			Assignment:  existing,
			Dimension:   dimension,
			SubjectName: names.subject(existing.SubjectID),
			TimeRange:   models.TimeRange(existing.StartTime, existing.EndTime),
		}
		if isTeacher {
			info.CounterpartName = names.group(existing.GroupID)
		} else {
			info.CounterpartName = names.teacher(existing.TeacherID)
		}
		result = append(result, info)
	}
	return result
}

// Collisions checks both the teacher and the group of candidate.
func (d *ConflictDetector) Collisions(ctx context.Context, source assignmentSource, candidate models.Assignment) []models.ConflictInfo {
	var result []models.ConflictInfo
	if candidate.TeacherID != "" {
		result = append(result, d.ConflictDetails(ctx, source, candidate.Weekday, candidate.StartTime, candidate.EndTime, candidate.TeacherID, true, candidate.ID)...)
	}
	if candidate.GroupID != "" {
		result = append(result, d.ConflictDetails(ctx, source, candidate.Weekday, candidate.StartTime, candidate.EndTime, candidate.GroupID, false, candidate.ID)...)
	}
	return result
}

func collides(existing, candidate models.Assignment, entityID string, isTeacher bool) bool {
	if candidate.ID != "" && existing.ID == candidate.ID {
		return false
	}
	if existing.Weekday != candidate.Weekday {
		return false
	}
	if !existing.References(entityID, isTeacher) {
		return false
	}
	return models.Overlaps(existing.StartTime, existing.EndTime, candidate.StartTime, candidate.EndTime)
}

// nameCache memoises registry lookups for one detector call.
type nameCache struct {
	ctx      context.Context
	registry entityRegistry
	logger   *zap.Logger
	subjects map[string]string
	groups   map[string]string
	teachers map[string]string
}

func newNameCache(ctx context.Context, registry entityRegistry, logger *zap.Logger) *nameCache {
	return &nameCache{
		ctx:      ctx,
		registry: registry,
		logger:   logger,
		subjects: make(map[string]string),
		groups:   make(map[string]string),
		teachers: make(map[string]string),
	}
}

func (c *nameCache) subject(id string) string {
	return c.lookup(c.subjects, id, func() (string, error) {
		subject, err := c.registry.FindSubject(c.ctx, id)
		if err != nil || subject == nil {
			return "", err
		}
		return subject.Name, nil
	})
}

func (c *nameCache) group(id string) string {
	return c.lookup(c.groups, id, func() (string, error) {
		group, err := c.registry.FindGroup(c.ctx, id)
		if err != nil || group == nil {
			return "", err
		}
		return group.Name, nil
	})
}

func (c *nameCache) teacher(id string) string {
	return c.lookup(c.teachers, id, func() (string, error) {
		teacher, err := c.registry.FindTeacher(c.ctx, id)
		if err != nil || teacher == nil {
			return "", err
		}
		return teacher.Name, nil
	})
}

func (c *nameCache) lookup(memo map[string]string, id string, fetch func() (string, error)) string {
	if id == "" {
		return ""
	}
	if name, ok := memo[id]; ok {
		return name
	}
	name := id
	if c.registry != nil {
		resolved, err := fetch()
		if err != nil {
			c.logger.Debug("conflict name lookup failed", zap.String("id", id), zap.Error(err))
		} else if resolved != "" {
			name = resolved
		}
	}
	memo[id] = name
	return name
}
