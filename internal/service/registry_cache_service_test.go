package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type fakeCacheStore struct {
	*fakeKV
	deleteErr error
}

func (f *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			delete(f.values, key)
		}
	}
	return nil
}

type countingRegistry struct {
	*fakeRegistry
	teacherCalls int
}

func (c *countingRegistry) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	c.teacherCalls++
	return c.fakeRegistry.ListTeachers(ctx)
}

func TestRegistryCacheServesFromCache(t *testing.T) {
	source := &countingRegistry{fakeRegistry: newFakeRegistry()}
	cache := &fakeCacheStore{fakeKV: newFakeKV()}
	svc := NewRegistryCacheService(source, cache, 0, true, nil, nil)
	ctx := context.Background()

	first, err := svc.ListTeachers(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Contains(t, cache.values, registryTeachersKey)

	second, err := svc.ListTeachers(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.teacherCalls)

	teacher, err := svc.FindTeacher(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, teacher.Teaches("S3"))
	assert.Equal(t, 1, source.teacherCalls)

	require.NoError(t, svc.Invalidate(ctx))
	assert.Empty(t, cache.values)
	_, err = svc.ListTeachers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.teacherCalls)
}

func TestRegistryCacheFindMissingReturnsNoRows(t *testing.T) {
	svc := NewRegistryCacheService(newFakeRegistry(), nil, 0, true, nil, nil)
	ctx := context.Background()

	_, err := svc.FindTeacher(ctx, "T9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	_, err = svc.FindSubject(ctx, "S9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	_, err = svc.FindGroup(ctx, "G9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	group, err := svc.FindGroup(ctx, "G2")
	require.NoError(t, err)
	assert.Equal(t, "10B", group.Name)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Invalidate(ctx))
}

func TestRegistryCacheFallsBackOnCacheErrors(t *testing.T) {
	source := &countingRegistry{fakeRegistry: newFakeRegistry()}
	kv := newFakeKV()
	kv.getErr = errors.New("redis down")
	kv.setErr = errors.New("redis down")
	cache := &fakeCacheStore{fakeKV: kv, deleteErr: errors.New("redis down")}
	svc := NewRegistryCacheService(source, cache, 0, true, nil, nil)
	ctx := context.Background()

	teachers, err := svc.ListTeachers(ctx)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	subjects, err := svc.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 3)

	err = svc.Invalidate(ctx)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))
}

func TestRegistryCachePropagatesSourceErrors(t *testing.T) {
	source := newFakeRegistry()
	source.err = errors.New("db down")
	cache := &fakeCacheStore{fakeKV: newFakeKV()}
	svc := NewRegistryCacheService(source, cache, 0, true, nil, nil)

	_, err := svc.ListGroups(context.Background())
	require.Error(t, err)
	assert.NotContains(t, cache.values, registryGroupsKey)
}
