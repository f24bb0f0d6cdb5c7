package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type fakeKV struct {
	values map[string][]byte
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string][]byte)}
}

func (f *fakeKV) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

// gatedKV holds the first Set until release is closed.
type gatedKV struct {
	*fakeKV
	mu      sync.Mutex
	gated   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	g.mu.Lock()
	first := !g.gated
	g.gated = true
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeKV.Set(ctx, key, value, ttl)
}

func TestGeneratorConfigPersistsEditsInOrder(t *testing.T) {
	kv := &gatedKV{fakeKV: newFakeKV(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewGeneratorConfigService(kv, newFakeRegistry(), nil, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _, err := svc.PutTeacherPlan(ctx, singlePlan("T1", "S1", 2, "G1"))
		assert.NoError(t, err)
	}()
	<-kv.entered
	go func() {
		defer wg.Done()
		_, _, err := svc.PutTeacherPlan(ctx, singlePlan("T2", "S2", 2, "G2"))
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	current, _ := svc.Current()
	_, pending := current.Plan("T2")
	assert.False(t, pending, "second edit waits for the first save")
	close(kv.release)
	wg.Wait()

	reloaded := NewGeneratorConfigService(kv.fakeKV, nil, nil, nil, nil)
	require.NoError(t, reloaded.Load(ctx))
	persisted, _ := reloaded.Current()
	_, hasFirst := persisted.Plan("T1")
	_, hasSecond := persisted.Plan("T2")
	assert.True(t, hasFirst)
	assert.True(t, hasSecond)
}

func TestGeneratorConfigPutTeacherPlanPersists(t *testing.T) {
	kv := newFakeKV()
	svc := NewGeneratorConfigService(kv, newFakeRegistry(), nil, nil, nil)

	cfg, warning, err := svc.PutTeacherPlan(context.Background(), models.TeacherPlan{
		TeacherID: "T1",
		Subjects:  []models.SubjectPlan{{SubjectID: "S1", GroupIDs: []string{"G1", "G2", "G1"}, WeeklyHours: 4}},
	})
	require.NoError(t, err)
	assert.Nil(t, warning)
	plan, ok := cfg.Plan("T1")
	require.True(t, ok)
	assert.Equal(t, []string{"G1", "G2"}, plan.Subjects[0].GroupIDs)
	assert.Contains(t, kv.values, GeneratorConfigKey)
	assert.Contains(t, kv.values, GeneratorShiftsKey)

	reloaded := NewGeneratorConfigService(kv, nil, nil, nil, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	current, _ := reloaded.Current()
	assert.Equal(t, cfg, current)
}

func TestGeneratorConfigRejectsInvalidPlans(t *testing.T) {
	svc := NewGeneratorConfigService(nil, newFakeRegistry(), nil, nil, nil)
	ctx := context.Background()

	_, _, err := svc.PutTeacherPlan(ctx, models.TeacherPlan{TeacherID: "T1", Subjects: []models.SubjectPlan{{SubjectID: "S2", WeeklyHours: 2}}})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, _, err = svc.PutTeacherPlan(ctx, models.TeacherPlan{TeacherID: "T1", Subjects: []models.SubjectPlan{
		{SubjectID: "S1", WeeklyHours: 2},
		{SubjectID: "S1", WeeklyHours: 3},
	}})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, _, err = svc.PutTeacherPlan(ctx, models.TeacherPlan{TeacherID: "T1", Subjects: []models.SubjectPlan{{SubjectID: "S1", WeeklyHours: -1}}})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, _, err = svc.PutTeacherPlan(ctx, models.TeacherPlan{TeacherID: "T9"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	cfg, _ := svc.Current()
	assert.Empty(t, cfg.Teachers)
}

func TestGeneratorConfigShiftsAndRemoval(t *testing.T) {
	svc := NewGeneratorConfigService(nil, newFakeRegistry(), nil, nil, nil)
	ctx := context.Background()
	key := models.ShiftKey{TeacherID: "T1", SubjectID: "S1", GroupID: "G1"}

	_, _, err := svc.SetShift(ctx, models.ShiftSelection{ShiftKey: key, Shift: "evening"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	shifts, _, err := svc.SetShift(ctx, models.ShiftSelection{ShiftKey: key, Shift: "afternoon"})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftAfternoon, shifts.Lookup(key))
	assert.Equal(t, models.ShiftMorning, shifts.Lookup(models.ShiftKey{TeacherID: "T1", SubjectID: "S1", GroupID: "G2"}))

	_, _, err = svc.RemoveTeacherPlan(ctx, "T1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	_, _, err = svc.PutTeacherPlan(ctx, models.TeacherPlan{TeacherID: "T1", Subjects: []models.SubjectPlan{{SubjectID: "S1", GroupIDs: []string{"G1"}, WeeklyHours: 2}}})
	require.NoError(t, err)
	cfg, _, err := svc.RemoveTeacherPlan(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, cfg.Teachers)
	_, current := svc.Current()
	assert.Equal(t, 0, current.Len())
}

func TestGeneratorConfigPersistenceWarning(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("redis down")
	metrics := NewMetricsService()
	svc := NewGeneratorConfigService(kv, nil, nil, nil, metrics)

	cfg, warning, err := svc.PutTeacherPlan(context.Background(), models.TeacherPlan{TeacherID: "T1", Subjects: []models.SubjectPlan{{SubjectID: "S1", WeeklyHours: 2}}})
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, appErrors.ErrPersistence.Message, warning.Message)
	_, ok := cfg.Plan("T1")
	assert.True(t, ok)
	current, _ := svc.Current()
	assert.Len(t, current.Teachers, 1)
}

func TestGeneratorConfigLoad(t *testing.T) {
	empty := NewGeneratorConfigService(newFakeKV(), nil, nil, nil, nil)
	require.NoError(t, empty.Load(context.Background()))
	cfg, shifts := empty.Current()
	assert.Empty(t, cfg.Teachers)
	assert.Equal(t, 0, shifts.Len())

	kv := newFakeKV()
	kv.getErr = errors.New("redis down")
	failing := NewGeneratorConfigService(kv, nil, nil, nil, nil)
	err := failing.Load(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))

	assert.NoError(t, NewGeneratorConfigService(nil, nil, nil, nil, nil).Load(context.Background()))
}
