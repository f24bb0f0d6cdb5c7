package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type workflowEngine interface {
	Start() models.WorkflowSession
	Session(id string) (models.WorkflowSession, error)
	Apply(sessionID string, transition service.WorkflowTransition) (*dto.WorkflowOutcome, error)
	EligibleSubjects(ctx context.Context, session models.WorkflowSession) ([]models.Subject, error)
	SelectEntity(ctx context.Context, session models.WorkflowSession, kind models.EntityKind, entityID string) (*dto.WorkflowOutcome, error)
	SelectSubject(ctx context.Context, session models.WorkflowSession, subjectID string) (*dto.WorkflowOutcome, error)
	ChooseCell(ctx context.Context, session models.WorkflowSession, weekday models.Weekday, blockIndex int) (*dto.WorkflowOutcome, error)
	SelectCounterpart(ctx context.Context, session models.WorkflowSession, groupID string) (*dto.WorkflowOutcome, error)
	Cancel(session models.WorkflowSession) (*dto.WorkflowOutcome, error)
	DeleteCell(session models.WorkflowSession, weekday models.Weekday, blockIndex int, confirmed bool) (*dto.WorkflowOutcome, error)
	ClearAll(session models.WorkflowSession) (*dto.WorkflowOutcome, error)
}

// WorkflowHandler drives manual assignment sessions over HTTP.
type WorkflowHandler struct {
	service   workflowEngine
	warnings  warningSource
	validator *validator.Validate
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(svc workflowEngine, warnings warningSource, validate *validator.Validate) *WorkflowHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &WorkflowHandler{service: svc, warnings: warnings, validator: validate}
}

// Start godoc
// @Summary Open a manual assignment session
// @Tags Workflow
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /workflow/sessions [post]
func (h *WorkflowHandler) Start(c *gin.Context) {
	response.Created(c, h.service.Start(), nil)
}

// Get godoc
// @Summary Get a session
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Subjects godoc
// @Summary Subjects eligible for the anchor entity
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id}/subjects [get]
func (h *WorkflowHandler) Subjects(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.EligibleSubjects(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// SelectEntity godoc
// @Summary Anchor the session on a teacher or group
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectEntityRequest true "Entity"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id}/entity [post]
func (h *WorkflowHandler) SelectEntity(c *gin.Context) {
	var req dto.SelectEntityRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	h.apply(c, func(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
		return h.service.SelectEntity(ctx, session, models.EntityKind(req.Kind), req.ID)
	})
}

// SelectSubject godoc
// @Summary Pick the subject for following cells
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectSubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id}/subject [post]
func (h *WorkflowHandler) SelectSubject(c *gin.Context) {
	var req dto.SelectSubjectRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	h.apply(c, func(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
		return h.service.SelectSubject(ctx, session, req.SubjectID)
	})
}

// ChooseCell godoc
// @Summary Tap a grid cell
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ChooseCellRequest true "Cell"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflow/sessions/{id}/cell [post]
func (h *WorkflowHandler) ChooseCell(c *gin.Context) {
	var req dto.ChooseCellRequest
	if !h.bind(c, &req) {
		return
	}
	weekday, ok := models.ParseWeekday(req.Weekday)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown weekday"))
		return
	}
	ctx := c.Request.Context()
	h.apply(c, func(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
		return h.service.ChooseCell(ctx, session, weekday, *req.BlockIndex)
	})
}

// SelectCounterpart godoc
// @Summary Choose the group for a teacher anchored cell and commit
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectCounterpartRequest true "Group"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflow/sessions/{id}/counterpart [post]
func (h *WorkflowHandler) SelectCounterpart(c *gin.Context) {
	var req dto.SelectCounterpartRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	h.apply(c, func(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
		return h.service.SelectCounterpart(ctx, session, req.GroupID)
	})
}

// Cancel godoc
// @Summary Abandon the pending cell
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id}/cancel [post]
func (h *WorkflowHandler) Cancel(c *gin.Context) {
	h.apply(c, h.service.Cancel)
}

// DeleteCell godoc
// @Summary Remove the anchor's assignment on a cell
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Param weekday query string true "Weekday"
// @Param block query int true "Block index"
// @Param confirm query bool false "Confirm removal"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /workflow/sessions/{id}/cell [delete]
func (h *WorkflowHandler) DeleteCell(c *gin.Context) {
	weekday, ok := models.ParseWeekday(c.Query("weekday"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown weekday"))
		return
	}
	block, err := strconv.Atoi(c.Query("block"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "block must be an integer"))
		return
	}
	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))
	h.apply(c, func(session models.WorkflowSession) (*dto.WorkflowOutcome, error) {
		return h.service.DeleteCell(session, weekday, block, confirmed)
	})
}

// ClearAll godoc
// @Summary Remove every assignment of the anchor entity
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /workflow/sessions/{id}/assignments [delete]
func (h *WorkflowHandler) ClearAll(c *gin.Context) {
	h.apply(c, h.service.ClearAll)
}

func (h *WorkflowHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workflow payload"))
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workflow payload"))
		return false
	}
	return true
}

func (h *WorkflowHandler) apply(c *gin.Context, transition service.WorkflowTransition) {
	outcome, err := h.service.Apply(c.Param("id"), transition)
	if err != nil {
		var meta map[string]interface{}
		if outcome != nil {
			meta = map[string]interface{}{"session": outcome.Session}
			if outcome.Prompt != "" {
				meta["prompt"] = outcome.Prompt
			}
			if outcome.Pending != nil {
				meta["pending"] = outcome.Pending
			}
		}
		response.Error(c, err, meta)
		return
	}
	response.OK(c, outcome, lastWarning(h.warnings))
}
