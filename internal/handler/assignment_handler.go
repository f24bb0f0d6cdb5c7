package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type assignmentManager interface {
	List(filter models.AssignmentFilter) []models.Assignment
	Update(ctx context.Context, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(id string) error
	ClearFor(entityID string, isTeacher bool) int
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
}

// warningSource reports an outstanding background persistence failure.
type warningSource interface {
	LastWarning() *models.PersistenceWarning
}

// AssignmentHandler exposes direct schedule store operations.
type AssignmentHandler struct {
	service  assignmentManager
	warnings warningSource
}

// NewAssignmentHandler constructs the handler. warnings may be nil.
func NewAssignmentHandler(svc assignmentManager, warnings warningSource) *AssignmentHandler {
	return &AssignmentHandler{service: svc, warnings: warnings}
}

// List godoc
// @Summary List assignments
// @Tags Timetable
// @Produce json
// @Param teacherId query string false "Teacher ID"
// @Param groupId query string false "Group ID"
// @Param weekday query string false "Weekday"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{TeacherID: c.Query("teacherId"), GroupID: c.Query("groupId")}
	if raw := c.Query("weekday"); raw != "" {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown weekday"))
			return
		}
		filter.Weekday = day
	}
	response.OK(c, h.service.List(filter), lastWarning(h.warnings))
}

// Update godoc
// @Summary Update subject, teacher or group of an assignment
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [patch]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated, lastWarning(h.warnings))
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Timetable
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckConflicts godoc
// @Summary Check a candidate assignment for collisions
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate"
// @Success 200 {object} response.Envelope
// @Router /assignments/conflicts [post]
func (h *AssignmentHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict payload"))
		return
	}
	result, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClearTeacher godoc
// @Summary Remove every assignment of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [delete]
func (h *AssignmentHandler) ClearTeacher(c *gin.Context) {
	h.clear(c, true)
}

// ClearGroup godoc
// @Summary Remove every assignment of a group
// @Tags Timetable
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/assignments [delete]
func (h *AssignmentHandler) ClearGroup(c *gin.Context) {
	h.clear(c, false)
}

func (h *AssignmentHandler) clear(c *gin.Context, isTeacher bool) {
	removed := h.service.ClearFor(c.Param("id"), isTeacher)
	response.OK(c, gin.H{"removed": removed}, lastWarning(h.warnings))
}

func lastWarning(source warningSource) *models.PersistenceWarning {
	if source == nil {
		return nil
	}
	return source.LastWarning()
}
