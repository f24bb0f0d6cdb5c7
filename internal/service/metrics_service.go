package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the
// scheduling engine.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	generationPlaced    prometheus.Counter
	generationShortfall prometheus.Counter
	conflictsDetected   *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	assignments         prometheus.Gauge
	cacheLatency        prometheus.Observer
	dbQueryDuration     *prometheus.HistogramVec

	requestCount    uint64
	generationCount uint64
	conflictCount   uint64
}

// MetricsSnapshot is a lightweight view of counters for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal  uint64    `json:"requests_total"`
	Generations    uint64    `json:"generations"`
	ConflictsTotal uint64    `json:"conflicts_total"`
	Goroutines     int       `json:"goroutines"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	generationPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_placed_total",
		Help: "Assignments emitted by the generator",
	})

	generationShortfall := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_shortfall_hours_total",
		Help: "Weekly hours the generator could not place",
	})

	conflictsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_total",
		Help: "Rejected writes due to teacher or group double-booking",
	}, []string{"source"})

	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_persistence_failures_total",
		Help: "Background writes that failed",
	}, []string{"component"})

	assignments := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_assignments",
		Help: "Assignments currently held in the schedule store",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kv_latency_seconds",
		Help:    "Latency for key-value store operations",
		Buckets: prometheus.DefBuckets,
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationDuration, generationPlaced, generationShortfall,
		conflictsDetected, persistenceFailures, assignments, cacheLatency, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		generationDuration:  generationDuration,
		generationPlaced:    generationPlaced,
		generationShortfall: generationShortfall,
		conflictsDetected:   conflictsDetected,
		persistenceFailures: persistenceFailures,
		assignments:         assignments,
		cacheLatency:        cacheLatency,
		dbQueryDuration:     dbQueryDuration,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordGeneration tracks one generator pass.
func (m *MetricsService) RecordGeneration(outcome string, duration time.Duration, placed, missing int) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.generationPlaced.Add(float64(placed))
	m.generationShortfall.Add(float64(missing))
	atomic.AddUint64(&m.generationCount, 1)
}

// RecordConflicts counts collisions that blocked a write.
func (m *MetricsService) RecordConflicts(source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.conflictsDetected.WithLabelValues(source).Add(float64(count))
	atomic.AddUint64(&m.conflictCount, uint64(count))
}

// RecordPersistenceFailure counts a failed background write for component.
func (m *MetricsService) RecordPersistenceFailure(component string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(component).Inc()
}

// SetAssignments publishes the current store size.
func (m *MetricsService) SetAssignments(count int) {
	if m == nil {
		return
	}
	m.assignments.Set(float64(count))
}

// ObserveKeyValue records key-value store latency.
func (m *MetricsService) ObserveKeyValue(duration time.Duration) {
	if m == nil || m.cacheLatency == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		RequestsTotal:  atomic.LoadUint64(&m.requestCount),
		Generations:    atomic.LoadUint64(&m.generationCount),
		ConflictsTotal: atomic.LoadUint64(&m.conflictCount),
		Goroutines:     runtime.NumGoroutine(),
		GeneratedAt:    time.Now().UTC(),
	}
}
