package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// BackendRequestsTotal counts survey backend calls by endpoint and outcome.
	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "backend_requests_total",
		Help:      "Total number of requests to the NSV survey backend, labeled by endpoint and result.",
	}, []string{"endpoint", "result"})

	// BackendRequestDuration is the survey backend call latency by endpoint.
	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of NSV survey backend calls.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	// VideoPollsTotal counts video status poll cycles.
	VideoPollsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "video_polls_total",
		Help:      "Total number of video processing status polls issued.",
	})

	// ListBatchesTotal counts list batches pushed to dashboards.
	ListBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "list_batches_total",
		Help:      "Total number of severity list batches rendered.",
	})

	// ListItemsRenderedTotal counts survey points appended to the list.
	ListItemsRenderedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "list_items_rendered_total",
		Help:      "Total number of survey points appended to the severity list.",
	})

	// ConnectedDashboards is the number of WebSocket clients currently attached.
	ConnectedDashboards = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "connected_dashboards",
		Help:      "Current number of connected dashboard WebSocket clients.",
	})

	// NotificationsTotal counts operator notifications by level.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "notifications_total",
		Help:      "Total number of operator notifications broadcast, labeled by level.",
	}, []string{"level"})

	// ExportsTotal counts CSV exports by renderer (local view or backend).
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nsv",
		Subsystem: "dashboard",
		Name:      "exports_total",
		Help:      "Total number of CSV exports, labeled by where the CSV was rendered.",
	}, []string{"source"})
)

// Register registers dashboard metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			BackendRequestsTotal,
			BackendRequestDuration,
			VideoPollsTotal,
			ListBatchesTotal,
			ListItemsRenderedTotal,
			ConnectedDashboards,
			NotificationsTotal,
			ExportsTotal,
		)
	})
}

// ObserveBackendRequest records one backend call. endpoint should come
// from EndpointLabel to keep per-video paths from exploding cardinality.
func ObserveBackendRequest(endpoint, result string, start time.Time) {
	BackendRequestsTotal.WithLabelValues(endpoint, result).Inc()
	BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// EndpointLabel collapses resource ids out of a backend path.
func EndpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "videos", "survey-point":
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
