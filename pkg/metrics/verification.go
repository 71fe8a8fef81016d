package metrics

import "github.com/prometheus/client_golang/prometheus"

type VerificationMetrics struct {
	profilesSynced   prometheus.Counter
	batchesTotal     *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	syncDurationSecs prometheus.Histogram
}

func NewVerificationMetrics(reg prometheus.Registerer) *VerificationMetrics {
	m := &VerificationMetrics{
		profilesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "profiles_synced_total",
			Help:      "Public profiles written by the bulk syncer",
		}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "batches_total",
			Help:      "Bulk sync batch commits by result",
		}, []string{"result"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "status_updates_total",
			Help:      "Single-user verification status updates",
		}, []string{"status", "result"}),
		syncDurationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "sync_duration_seconds",
			Help:      "Duration of a full verification sync pass",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
	}
	register(reg, m.profilesSynced, m.batchesTotal, m.statusUpdates, m.syncDurationSecs)
	return m
}

func (m *VerificationMetrics) ObserveBatch(size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.batchesTotal.WithLabelValues("error").Inc()
		return
	}
	m.batchesTotal.WithLabelValues("ok").Inc()
	m.profilesSynced.Add(float64(size))
}

func (m *VerificationMetrics) ObserveStatusUpdate(status, result string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status, result).Inc()
}

func (m *VerificationMetrics) ObserveSyncDuration(seconds float64) {
	if m == nil {
		return
	}
	m.syncDurationSecs.Observe(seconds)
}
