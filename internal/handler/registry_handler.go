package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type registryReader interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	Invalidate(ctx context.Context) error
}

// RegistryHandler lists the teachers, subjects and groups known to the scheduler.
type RegistryHandler struct {
	registry registryReader
}

// NewRegistryHandler constructs the handler.
func NewRegistryHandler(registry registryReader) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// Teachers godoc
// @Summary List teachers with their qualified subjects
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registry/teachers [get]
func (h *RegistryHandler) Teachers(c *gin.Context) {
	teachers, err := h.registry.ListTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}

// Subjects godoc
// @Summary List subjects
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registry/subjects [get]
func (h *RegistryHandler) Subjects(c *gin.Context) {
	subjects, err := h.registry.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// Groups godoc
// @Summary List class groups
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registry/groups [get]
func (h *RegistryHandler) Groups(c *gin.Context) {
	groups, err := h.registry.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups)
}

// Refresh godoc
// @Summary Drop cached registry lists
// @Tags Registry
// @Success 204
// @Router /registry/refresh [post]
func (h *RegistryHandler) Refresh(c *gin.Context) {
	if err := h.registry.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
