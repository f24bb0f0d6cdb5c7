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

type generatorConfigManager interface {
	Current() (models.GeneratorConfig, models.ShiftTable)
	PutTeacherPlan(ctx context.Context, plan models.TeacherPlan) (models.GeneratorConfig, *models.PersistenceWarning, error)
	RemoveTeacherPlan(ctx context.Context, teacherID string) (models.GeneratorConfig, *models.PersistenceWarning, error)
	SetShift(ctx context.Context, selection models.ShiftSelection) (models.ShiftTable, *models.PersistenceWarning, error)
}

type timetableGenerator interface {
	Preview(ctx context.Context) (*dto.GenerationResult, error)
	Generate(ctx context.Context) (*dto.GenerationResult, error)
}

// GeneratorHandler exposes generator configuration and runs.
type GeneratorHandler struct {
	configs   generatorConfigManager
	generator timetableGenerator
	warnings  warningSource
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(configs generatorConfigManager, generator timetableGenerator, warnings warningSource) *GeneratorHandler {
	return &GeneratorHandler{configs: configs, generator: generator, warnings: warnings}
}

// Config godoc
// @Summary Generator configuration
// @Tags Generator
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /generator/config [get]
func (h *GeneratorHandler) Config(c *gin.Context) {
	cfg, shifts := h.configs.Current()
	response.JSON(c, http.StatusOK, configResponse(cfg, shifts))
}

// PutTeacher godoc
// @Summary Replace a teacher's generator plan
// @Tags Generator
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.PutTeacherPlanRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Router /generator/config/teachers/{id} [put]
func (h *GeneratorHandler) PutTeacher(c *gin.Context) {
	var req dto.PutTeacherPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generator plan"))
		return
	}
	cfg, warning, err := h.configs.PutTeacherPlan(c.Request.Context(), models.TeacherPlan{TeacherID: c.Param("id"), Subjects: req.Subjects})
	if err != nil {
		response.Error(c, err)
		return
	}
	_, shifts := h.configs.Current()
	response.OK(c, configResponse(cfg, shifts), warning)
}

// DeleteTeacher godoc
// @Summary Remove a teacher from the generator
// @Tags Generator
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /generator/config/teachers/{id} [delete]
func (h *GeneratorHandler) DeleteTeacher(c *gin.Context) {
	cfg, warning, err := h.configs.RemoveTeacherPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	_, shifts := h.configs.Current()
	response.OK(c, configResponse(cfg, shifts), warning)
}

// SetShift godoc
// @Summary Choose the shift of a (teacher, subject, group) triple
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.SetShiftRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /generator/config/shifts [put]
func (h *GeneratorHandler) SetShift(c *gin.Context) {
	var req dto.SetShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid shift selection"))
		return
	}
	selection := models.ShiftSelection{
		ShiftKey: models.ShiftKey{TeacherID: req.TeacherID, SubjectID: req.SubjectID, GroupID: req.GroupID},
		Shift:    models.Shift(req.Shift),
	}
	shifts, warning, err := h.configs.SetShift(c.Request.Context(), selection)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shifts.Selections(), warning)
}

// Preview godoc
// @Summary Generate without committing
// @Tags Generator
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /generator/preview [post]
func (h *GeneratorHandler) Preview(c *gin.Context) {
	result, err := h.generator.Preview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Run godoc
// @Summary Replace the schedule with a generated one
// @Tags Generator
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 408 {object} response.Envelope
// @Router /generator/run [post]
func (h *GeneratorHandler) Run(c *gin.Context) {
	result, err := h.generator.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, lastWarning(h.warnings))
}

func configResponse(cfg models.GeneratorConfig, shifts models.ShiftTable) dto.GeneratorConfigResponse {
	teachers := cfg.Teachers
	if teachers == nil {
		teachers = []models.TeacherPlan{}
	}
	return dto.GeneratorConfigResponse{Teachers: teachers, Shifts: shifts.Selections()}
}
