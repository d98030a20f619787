package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rta"

var (
	registerOnce sync.Once

	calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "calls_total",
			Help:      "Mutating calls by method and result class.",
		},
		[]string{"method", "result"},
	)
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "call_duration_seconds",
			Help:      "Duration of mutating calls including commit.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "events_total",
			Help:      "Events published to the journal.",
		},
		[]string{"event"},
	)
	journalFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "publish_failures_total",
			Help:      "Batches of committed events the journal did not accept.",
		},
	)
	pendingOperations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "pending_operations",
			Help:      "Operations that are not executed yet.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(calls, callDuration, events, journalFailures, pendingOperations, httpRequests)
	})
}

// RecordCall counts a mutating call. result is "ok" or the error class.
func RecordCall(method, result string, duration time.Duration) {
	RegisterMetrics()
	calls.WithLabelValues(method, result).Inc()
	callDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordEvent(event string) {
	RegisterMetrics()
	events.WithLabelValues(event).Inc()
}

func RecordJournalFailure() {
	RegisterMetrics()
	journalFailures.Inc()
}

func SetPendingOperations(n int) {
	RegisterMetrics()
	pendingOperations.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
