package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableExporter interface {
	Render(ctx context.Context, req dto.ExportTimetableRequest) (*dto.TimetableFile, error)
	Publish(ctx context.Context, req dto.ExportTimetableRequest) (*dto.PublishedExport, error)
	Download(token string) (*dto.TimetableFile, error)
}

// ExportHandler serves timetable exports.
type ExportHandler struct {
	service timetableExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc timetableExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Timetable godoc
// @Summary Download a teacher or group timetable
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param entityType query string true "TEACHER or GROUP"
// @Param entityId query string true "Entity ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /exports/timetable [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Publish godoc
// @Summary Store a timetable export behind a signed link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportTimetableRequest true "Export"
// @Success 201 {object} response.Envelope
// @Router /exports/timetable [post]
func (h *ExportHandler) Publish(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	published, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, published, nil)
}

// Download godoc
// @Summary Fetch a published export
// @Tags Exports
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /exports/files/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *dto.TimetableFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
