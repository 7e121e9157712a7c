package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsetctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsetctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	updateCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docsetctl",
			Subsystem: "updater",
			Name:      "cycles_total",
			Help:      "Update cycles started.",
		},
	)
	builds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsetctl",
			Subsystem: "updater",
			Name:      "builds_total",
			Help:      "Docset build attempts by outcome.",
		},
		[]string{"product", "outcome"},
	)
	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsetctl",
			Subsystem: "updater",
			Name:      "build_duration_seconds",
			Help:      "Docset build duration in seconds.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"product"},
	)
	pendingVersions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docsetctl",
			Subsystem: "updater",
			Name:      "pending_versions",
			Help:      "Versions discovered but not yet built, per product.",
		},
		[]string{"product"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, updateCycles, builds, buildDuration, pendingVersions)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCycle() {
	RegisterMetrics()
	updateCycles.Inc()
}

func RecordBuild(product string, duration time.Duration, success bool) {
	RegisterMetrics()
	outcome := "failure"
	if success {
		outcome = "success"
	}
	builds.WithLabelValues(product, outcome).Inc()
	buildDuration.WithLabelValues(product).Observe(duration.Seconds())
}

func SetPendingVersions(product string, count int) {
	RegisterMetrics()
	pendingVersions.WithLabelValues(product).Set(float64(count))
}
