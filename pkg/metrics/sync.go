package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of push/pull reconciliation runs.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of sync operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_success",
		Help: "Successful sync operations.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_failure",
		Help: "Failed sync operations.",
	}, []string{"op"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_dropped",
		Help: "Sync operations dropped by the in-flight guard.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure, dropped)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		dropped:  dropped,
	}
}

// ObserveDuration records the duration for the named operation.
func (s *SyncMetrics) ObserveDuration(op string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (s *SyncMetrics) IncSuccess(op string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (s *SyncMetrics) IncFailure(op string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncDropped increments the dropped counter for the named operation.
func (s *SyncMetrics) IncDropped(op string) {
	if s == nil || s.dropped == nil {
		return
	}
	s.dropped.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
