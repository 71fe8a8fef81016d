package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts reservation saga outcomes.
type BookingMetrics struct {
	holdsTotal          *prometheus.CounterVec
	confirmationsTotal  *prometheus.CounterVec
	cancellationsTotal  *prometheus.CounterVec
	remoteCancelFailed  prometheus.Counter
	compensationsTotal  prometheus.Counter
	processorLatency    *prometheus.HistogramVec
	availabilityLookups *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		holdsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "holds_total",
			Help:      "Hold attempts by result",
		}, []string{"result"}),
		confirmationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "confirmations_total",
			Help:      "Confirm attempts by result",
		}, []string{"result"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "cancellations_total",
			Help:      "Cancel attempts by result",
		}, []string{"result"}),
		remoteCancelFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "remote_cancel_failed_total",
			Help:      "Payment intents that could not be canceled at the processor",
		}),
		compensationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "compensations_total",
			Help:      "Stray payment holds canceled after a failed booking write",
		}),
		processorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "processor_latency_seconds",
			Help:      "Latency of payment processor calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		availabilityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Slot availability lookups by result",
		}, []string{"result"}),
	}
	register(reg,
		m.holdsTotal,
		m.confirmationsTotal,
		m.cancellationsTotal,
		m.remoteCancelFailed,
		m.compensationsTotal,
		m.processorLatency,
		m.availabilityLookups,
	)
	return m
}

func (m *BookingMetrics) ObserveHold(result string) {
	if m == nil {
		return
	}
	m.holdsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveConfirm(result string) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveCancel(result string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveRemoteCancelFailed() {
	if m == nil {
		return
	}
	m.remoteCancelFailed.Inc()
}

func (m *BookingMetrics) ObserveCompensation() {
	if m == nil {
		return
	}
	m.compensationsTotal.Inc()
}

func (m *BookingMetrics) ObserveProcessorLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.processorLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveAvailability(result string) {
	if m == nil {
		return
	}
	m.availabilityLookups.WithLabelValues(result).Inc()
}
