// Package metrics exposes fstore's Prometheus instrumentation: HTTP
// request counters, ingestion counters, and background-task (check/
// archive) duration and error gauges.
//
// Grounded on the teacher's pkg/metrics/prometheus (promauto-registered
// CounterVec/HistogramVec families against a dedicated registry), narrowed
// from its cache/s3/nfs per-subsystem split — which exists there to avoid
// an import cycle between pkg/cache and pkg/metrics/prometheus — down to a
// single package, since the object store has no such cycle to route
// around (see DESIGN.md).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	objectsCommitted prometheus.Counter
	bytesCommitted   prometheus.Counter
	writeLockRejects prometheus.Counter

	taskDuration *prometheus.HistogramVec
	taskErrors   *prometheus.CounterVec
	taskTotal    *prometheus.GaugeVec
)

// Init creates a dedicated registry and registers every collector. Safe to
// call once at process startup; a nil registry (IsEnabled() == false) is
// used everywhere else so callers pay no overhead when metrics are off.
func Init() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return registry
	}

	registry = prometheus.NewRegistry()
	enabled = true

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fstore_http_requests_total",
		Help: "Total HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fstore_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	objectsCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fstore_objects_committed_total",
		Help: "Total parts committed to objects, including deduplicated commits.",
	})

	bytesCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fstore_bytes_committed_total",
		Help: "Total bytes of committed object content, including deduplicated commits.",
	})

	writeLockRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fstore_part_writelock_rejections_total",
		Help: "Total part opens rejected because another writer already holds the part.",
	})

	taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fstore_background_task_duration_seconds",
		Help:    "Duration of a completed check/archive run.",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
	}, []string{"task"})

	taskErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fstore_background_task_errors_total",
		Help: "Objects that finished a check/archive run with a non-empty error.",
	}, []string{"task"})

	taskTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fstore_background_task_objects",
		Help: "Object count processed by the most recently finished check/archive run.",
	}, []string{"task"})

	registry.MustRegister(
		httpRequests, httpDuration,
		objectsCommitted, bytesCommitted, writeLockRejects,
		taskDuration, taskErrors, taskTotal,
	)
	return registry
}

// IsEnabled reports whether Init has run.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Registry returns the metrics registry, or nil if Init was never called.
func Registry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, route, status string, seconds float64) {
	if !IsEnabled() {
		return
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveCommit records one successful CommitPart call.
func ObserveCommit(bytes int64) {
	if !IsEnabled() {
		return
	}
	objectsCommitted.Inc()
	bytesCommitted.Add(float64(bytes))
}

// ObserveWriteLockRejection records a WriteLock failure opening a part.
func ObserveWriteLockRejection() {
	if !IsEnabled() {
		return
	}
	writeLockRejects.Inc()
}

// ObserveTaskFinished records the terminal stats of a completed check or
// archive run.
func ObserveTaskFinished(task string, seconds float64, objectCount, errorCount int64) {
	if !IsEnabled() {
		return
	}
	taskDuration.WithLabelValues(task).Observe(seconds)
	taskErrors.WithLabelValues(task).Add(float64(errorCount))
	taskTotal.WithLabelValues(task).Set(float64(objectCount))
}
