package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// TimeGridHandler exposes the weekly block catalog.
type TimeGridHandler struct {
	grid *service.TimeGrid
}

// NewTimeGridHandler constructs the handler.
func NewTimeGridHandler(grid *service.TimeGrid) *TimeGridHandler {
	return &TimeGridHandler{grid: grid}
}

// Get godoc
// @Summary Weekly time grid
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timegrid [get]
func (h *TimeGridHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.TimeGridResponse{
		Weekdays:        h.grid.Weekdays(),
		Blocks:          h.grid.Blocks(),
		AfternoonCutoff: h.grid.AfternoonCutoff(),
	})
}

// Shift godoc
// @Summary Blocks of a shift
// @Tags Timetable
// @Produce json
// @Param shift path string true "MORNING or AFTERNOON"
// @Success 200 {object} response.Envelope
// @Router /timegrid/shifts/{shift} [get]
func (h *TimeGridHandler) Shift(c *gin.Context) {
	shift, ok := models.ParseShift(c.Param("shift"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "shift must be MORNING or AFTERNOON"))
		return
	}
	response.JSON(c, http.StatusOK, h.grid.BlocksForShift(shift))
}
