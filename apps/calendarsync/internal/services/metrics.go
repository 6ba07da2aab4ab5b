package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
)

const metricsNamespace = "schedulesync"

// MetricsService holds the collectors of the sync loop. A nil
// *MetricsService records nothing.
type MetricsService struct {
	Passes         prometheus.Counter
	PassDuration   prometheus.Histogram
	Subjects       *prometheus.CounterVec
	SubjectLatency prometheus.Histogram
	EventOps       *prometheus.CounterVec
	SnapshotFetch  *prometheus.CounterVec
}

func NewMetricsService(reg prometheus.Registerer) *MetricsService {
	factory := promauto.With(reg)

	return &MetricsService{
		Passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "passes_total",
			Help:      "Completed reconciliation passes",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a reconciliation pass",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), //nolint:mnd //no magic number
		}),
		Subjects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subjects_total",
			Help:      "Processed subjects by outcome",
		}, []string{"outcome"}),
		SubjectLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "subject_duration_seconds",
			Help:      "Wall time spent on one subject",
			Buckets:   prometheus.DefBuckets,
		}),
		EventOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "event_operations_total",
			Help:      "Calendar event mutations by operation and result",
		}, []string{"op", "result"}),
		SnapshotFetch: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_fetches_total",
			Help:      "Schedule snapshot lookups by source",
		}, []string{"source"}),
	}
}

func (m *MetricsService) observePass(duration time.Duration) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.PassDuration.Observe(duration.Seconds())
}

func (m *MetricsService) observeSubject(report models.SubjectReport) {
	if m == nil {
		return
	}
	m.Subjects.WithLabelValues(string(report.Outcome)).Inc()
	m.SubjectLatency.Observe(report.Duration.Seconds())
}

func (m *MetricsService) observeEventOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventOps.WithLabelValues(op, result).Inc()
}

func (m *MetricsService) observeSnapshot(source string) {
	if m == nil {
		return
	}
	m.SnapshotFetch.WithLabelValues(source).Inc()
}
