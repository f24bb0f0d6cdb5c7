package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestMetricsHandlerHealthAndReady(t *testing.T) {
	healthy := PingFunc(func(ctx context.Context) error { return nil })
	failing := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	router := newTestRouter()
	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": healthy})
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	requireStatus(t, serve(router, http.MethodGet, "/health", nil), http.StatusOK)
	requireStatus(t, serve(router, http.MethodGet, "/ready", nil), http.StatusOK)

	degraded := newTestRouter()
	d := NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy, "redis": failing})
	degraded.GET("/ready", d.Ready)
	w := serve(degraded, http.MethodGet, "/ready", nil)
	requireStatus(t, w, http.StatusServiceUnavailable)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestMetricsHandlerPrometheusAndStats(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordGeneration("committed", 0, 3, 0)

	router := newTestRouter()
	h := NewMetricsHandler(metrics, nil)
	router.GET("/metrics", h.Prometheus)
	router.GET("/stats", h.Stats)

	w := serve(router, http.MethodGet, "/metrics", nil)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, strings.Contains(w.Body.String(), "timetable_"), "expected timetable metrics")

	w = serve(router, http.MethodGet, "/stats", nil)
	requireStatus(t, w, http.StatusOK)
	var snapshot service.MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, uint64(1), snapshot.Generations)

	disabled := newTestRouter()
	n := NewMetricsHandler(nil, nil)
	disabled.GET("/metrics", n.Prometheus)
	requireStatus(t, serve(disabled, http.MethodGet, "/metrics", nil), http.StatusServiceUnavailable)
}

type registryReaderStub struct {
	invalidateErr error
	refreshed     bool
}

func (s *registryReaderStub) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return []models.Teacher{{ID: "T1", Name: "Ana Lopez"}}, nil
}

func (s *registryReaderStub) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: "S1", Name: "Mathematics"}}, nil
}

func (s *registryReaderStub) ListGroups(ctx context.Context) ([]models.Group, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "failed to load groups")
}

func (s *registryReaderStub) Invalidate(ctx context.Context) error {
	s.refreshed = true
	return s.invalidateErr
}

func TestRegistryHandler(t *testing.T) {
	registry := &registryReaderStub{}
	router := newTestRouter()
	h := NewRegistryHandler(registry)
	router.GET("/registry/teachers", h.Teachers)
	router.GET("/registry/subjects", h.Subjects)
	router.GET("/registry/groups", h.Groups)
	router.POST("/registry/refresh", h.Refresh)

	w := serve(router, http.MethodGet, "/registry/teachers", nil)
	requireStatus(t, w, http.StatusOK)
	var teachers []models.Teacher
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &teachers))
	assert.Equal(t, "Ana Lopez", teachers[0].Name)

	requireStatus(t, serve(router, http.MethodGet, "/registry/subjects", nil), http.StatusOK)
	requireStatus(t, serve(router, http.MethodGet, "/registry/groups", nil), http.StatusInternalServerError)

	requireStatus(t, serve(router, http.MethodPost, "/registry/refresh", nil), http.StatusNoContent)
	assert.True(t, registry.refreshed)

	registry.invalidateErr = appErrors.Clone(appErrors.ErrUnavailable, "failed to refresh registry cache")
	requireStatus(t, serve(router, http.MethodPost, "/registry/refresh", nil), http.StatusServiceUnavailable)
}
