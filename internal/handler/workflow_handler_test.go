package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type workflowEngineStub struct {
	session models.WorkflowSession

	kind      models.EntityKind
	entityID  string
	weekday   models.Weekday
	block     int
	confirmed bool

	cellOutcome *dto.WorkflowOutcome
	cellErr     error
}

func newWorkflowEngineStub() *workflowEngineStub {
	return &workflowEngineStub{session: models.WorkflowSession{ID: "s1", State: models.WorkflowIdle}}
}

func (s *workflowEngineStub) Start() models.WorkflowSession { return s.session }

func (s *workflowEngineStub) Session(id string) (models.WorkflowSession, error) {
	if id != s.session.ID {
		return models.WorkflowSession{}, appErrors.Clone(appErrors.ErrNotFound, "workflow session not found")
	}
	return s.session, nil
}

func (s *workflowEngineStub) Apply(sessionID string, transition service.WorkflowTransition) (*dto.WorkflowOutcome, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return transition(session)
}

func (s *workflowEngineStub) EligibleSubjects(ctx context.Context, session models.WorkflowSession) ([]models.Subject, error) {
	return []models.Subject{{ID: "S1", Name: "Mathematics"}}, nil
}

func (s *workflowEngineStub) SelectEntity(ctx context.Context, session models.WorkflowSession, kind models.EntityKind, entityID string) (*dto.WorkflowOutcome, error) {
	s.kind, s.entityID = kind, entityID
	session.Anchor = models.EntityRef{Kind: kind, ID: entityID}
	return &dto.WorkflowOutcome{Session: session}, nil
}

func (s *workflowEngineStub) SelectSubject(ctx context.Context, session models.WorkflowSession, subjectID string) (*dto.WorkflowOutcome, error) {
	session.SubjectID = subjectID
	return &dto.WorkflowOutcome{Session: session}, nil
}

func (s *workflowEngineStub) ChooseCell(ctx context.Context, session models.WorkflowSession, weekday models.Weekday, blockIndex int) (*dto.WorkflowOutcome, error) {
	s.weekday, s.block = weekday, blockIndex
	if s.cellOutcome != nil || s.cellErr != nil {
		return s.cellOutcome, s.cellErr
	}
	return &dto.WorkflowOutcome{Session: session}, nil
}

func (s *workflowEngineStub) SelectCounterpart(ctx context.Context, session models.WorkflowSession, groupID string) (*dto.WorkflowOutcome, error) {
	committed := models.Assignment{ID: "a1", GroupID: groupID}
	return &dto.WorkflowOutcome{Session: session, Committed: &committed}, nil
}

func (s *workflowEngineStub) Cancel(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
	return &dto.WorkflowOutcome{Session: session}, nil
}

func (s *workflowEngineStub) DeleteCell(session models.WorkflowSession, weekday models.Weekday, blockIndex int, confirmed bool) (*dto.WorkflowOutcome, error) {
	s.weekday, s.block, s.confirmed = weekday, blockIndex, confirmed
	if !confirmed {
		pending := models.Assignment{ID: "a1"}
		return &dto.WorkflowOutcome{Session: session, Pending: &pending, Prompt: "confirm removal"}, appErrors.Clone(appErrors.ErrPreconditionFailed, "confirmation required")
	}
	return &dto.WorkflowOutcome{Session: session, Removed: 1}, nil
}

func (s *workflowEngineStub) ClearAll(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
	return &dto.WorkflowOutcome{Session: session, Removed: 3}, nil
}

type warningStub struct {
	warning *models.PersistenceWarning
}

func (w warningStub) LastWarning() *models.PersistenceWarning { return w.warning }

func newWorkflowRouter(engine workflowEngine, warnings warningSource) *gin.Engine {
	router := newTestRouter()
	h := NewWorkflowHandler(engine, warnings, nil)
	router.POST("/workflow/sessions", h.Start)
	router.GET("/workflow/sessions/:id", h.Get)
	router.GET("/workflow/sessions/:id/subjects", h.Subjects)
	router.POST("/workflow/sessions/:id/entity", h.SelectEntity)
	router.POST("/workflow/sessions/:id/subject", h.SelectSubject)
	router.POST("/workflow/sessions/:id/cell", h.ChooseCell)
	router.DELETE("/workflow/sessions/:id/cell", h.DeleteCell)
	router.POST("/workflow/sessions/:id/counterpart", h.SelectCounterpart)
	router.POST("/workflow/sessions/:id/cancel", h.Cancel)
	router.DELETE("/workflow/sessions/:id/assignments", h.ClearAll)
	return router
}

func TestWorkflowHandlerStartAndGet(t *testing.T) {
	router := newWorkflowRouter(newWorkflowEngineStub(), nil)

	w := serve(router, http.MethodPost, "/workflow/sessions", nil)
	requireStatus(t, w, http.StatusCreated)
	var session models.WorkflowSession
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &session))
	assert.Equal(t, "s1", session.ID)

	requireStatus(t, serve(router, http.MethodGet, "/workflow/sessions/s1", nil), http.StatusOK)
	requireStatus(t, serve(router, http.MethodGet, "/workflow/sessions/s1/subjects", nil), http.StatusOK)

	w = serve(router, http.MethodGet, "/workflow/sessions/missing", nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, appErrors.ErrNotFound.Code, decode(t, w).Error.Code)
}

func TestWorkflowHandlerSelectEntity(t *testing.T) {
	engine := newWorkflowEngineStub()
	router := newWorkflowRouter(engine, warningStub{warning: &models.PersistenceWarning{Message: "changes may not survive a restart"}})

	w := serve(router, http.MethodPost, "/workflow/sessions/s1/entity", dto.SelectEntityRequest{Kind: "teacher", ID: "T1"})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.EntityKind("teacher"), engine.kind)
	assert.Equal(t, "T1", engine.entityID)
	assert.Contains(t, decode(t, w).Meta, "persistence_warning")

	w = serve(router, http.MethodPost, "/workflow/sessions/s1/entity", dto.SelectEntityRequest{Kind: "room", ID: "R1"})
	requireStatus(t, w, http.StatusBadRequest)

	w = serve(router, http.MethodPost, "/workflow/sessions/s1/subject", `{"subject_id":`)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestWorkflowHandlerChooseCell(t *testing.T) {
	engine := newWorkflowEngineStub()
	router := newWorkflowRouter(engine, nil)

	w := serve(router, http.MethodPost, "/workflow/sessions/s1/cell", map[string]interface{}{"weekday": "monday", "block_index": 0})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.Monday, engine.weekday)
	assert.Equal(t, 0, engine.block)

	requireStatus(t, serve(router, http.MethodPost, "/workflow/sessions/s1/cell", map[string]interface{}{"weekday": "monday"}), http.StatusBadRequest)
	requireStatus(t, serve(router, http.MethodPost, "/workflow/sessions/s1/cell", map[string]interface{}{"weekday": "funday", "block_index": 1}), http.StatusBadRequest)
}

func TestWorkflowHandlerConflictCarriesDetails(t *testing.T) {
	engine := newWorkflowEngineStub()
	conflicts := []models.ConflictInfo{{Dimension: models.ConflictTeacher, SubjectName: "Mathematics", CounterpartName: "10A", TimeRange: "07:00-07:50"}}
	detail := &models.ScheduleConflictError{Type: "SCHEDULE_CONFLICT", Message: "teacher is already booked", Conflicts: conflicts}
	engine.cellOutcome = &dto.WorkflowOutcome{Session: models.WorkflowSession{ID: "s1", State: models.WorkflowSubjectSelected, Conflicts: conflicts}}
	engine.cellErr = appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, detail.Message)
	router := newWorkflowRouter(engine, nil)

	w := serve(router, http.MethodPost, "/workflow/sessions/s1/cell", map[string]interface{}{"weekday": "MONDAY", "block_index": 2})
	requireStatus(t, w, http.StatusConflict)
	env := decode(t, w)
	assert.Equal(t, appErrors.ErrConflict.Code, env.Error.Code)
	require.Contains(t, env.Meta, "conflicts")
	require.Contains(t, env.Meta, "session")

	var listed []models.ConflictInfo
	require.NoError(t, json.Unmarshal(env.Meta["conflicts"], &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "10A", listed[0].CounterpartName)
}

func TestWorkflowHandlerCounterpartCancelAndClear(t *testing.T) {
	router := newWorkflowRouter(newWorkflowEngineStub(), nil)

	w := serve(router, http.MethodPost, "/workflow/sessions/s1/counterpart", dto.SelectCounterpartRequest{GroupID: "G1"})
	requireStatus(t, w, http.StatusOK)
	var outcome dto.WorkflowOutcome
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &outcome))
	require.NotNil(t, outcome.Committed)
	assert.Equal(t, "G1", outcome.Committed.GroupID)

	requireStatus(t, serve(router, http.MethodPost, "/workflow/sessions/s1/counterpart", dto.SelectCounterpartRequest{}), http.StatusBadRequest)
	requireStatus(t, serve(router, http.MethodPost, "/workflow/sessions/s1/cancel", nil), http.StatusOK)

	w = serve(router, http.MethodDelete, "/workflow/sessions/s1/assignments", nil)
	requireStatus(t, w, http.StatusOK)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &outcome))
	assert.Equal(t, 3, outcome.Removed)
}

func TestWorkflowHandlerDeleteCellNeedsConfirmation(t *testing.T) {
	engine := newWorkflowEngineStub()
	router := newWorkflowRouter(engine, nil)

	w := serve(router, http.MethodDelete, "/workflow/sessions/s1/cell?weekday=TUESDAY&block=4", nil)
	requireStatus(t, w, http.StatusPreconditionFailed)
	env := decode(t, w)
	assert.Contains(t, env.Meta, "pending")
	assert.Contains(t, env.Meta, "prompt")
	assert.Equal(t, models.Tuesday, engine.weekday)
	assert.Equal(t, 4, engine.block)
	assert.False(t, engine.confirmed)

	w = serve(router, http.MethodDelete, "/workflow/sessions/s1/cell?weekday=TUESDAY&block=4&confirm=true", nil)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, engine.confirmed)

	requireStatus(t, serve(router, http.MethodDelete, "/workflow/sessions/s1/cell?weekday=TUESDAY&block=x", nil), http.StatusBadRequest)
	requireStatus(t, serve(router, http.MethodDelete, "/workflow/sessions/s1/cell?block=1", nil), http.StatusBadRequest)
}
