package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type exporterStub struct {
	req dto.ExportTimetableRequest
}

func (s *exporterStub) Render(ctx context.Context, req dto.ExportTimetableRequest) (*dto.TimetableFile, error) {
	s.req = req
	if req.EntityID == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return &dto.TimetableFile{Name: "timetable_group_G1.csv", ContentType: "text/csv", Data: []byte("Time,Monday\n")}, nil
}

func (s *exporterStub) Publish(ctx context.Context, req dto.ExportTimetableRequest) (*dto.PublishedExport, error) {
	s.req = req
	return &dto.PublishedExport{Name: "timetable_group_G1.csv", Token: "tok", URL: "/api/v1/exports/files/tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *exporterStub) Download(token string) (*dto.TimetableFile, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export link invalid or expired")
	}
	return &dto.TimetableFile{Name: "timetable_group_G1.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func TestExportHandler(t *testing.T) {
	svc := &exporterStub{}
	router := newTestRouter()
	h := NewExportHandler(svc)
	router.GET("/exports/timetable", h.Timetable)
	router.POST("/exports/timetable", h.Publish)
	router.GET("/exports/files/:token", h.Download)

	w := serve(router, http.MethodGet, "/exports/timetable?entityType=group&entityId=G1&format=csv", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "group", svc.req.EntityType)
	assert.Equal(t, dto.ExportFormatCSV, svc.req.Format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_group_G1.csv")
	assert.Equal(t, "Time,Monday\n", w.Body.String())

	requireStatus(t, serve(router, http.MethodGet, "/exports/timetable?entityType=group&entityId=missing", nil), http.StatusNotFound)

	w = serve(router, http.MethodPost, "/exports/timetable", dto.ExportTimetableRequest{EntityType: "teacher", EntityID: "T1", Format: dto.ExportFormatPDF})
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, "T1", svc.req.EntityID)

	w = serve(router, http.MethodGet, "/exports/files/tok", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	requireStatus(t, serve(router, http.MethodGet, "/exports/files/bad", nil), http.StatusNotFound)
}
