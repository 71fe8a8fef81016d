package metrics

import "github.com/prometheus/client_golang/prometheus"

// KafkaMetrics replaces ad-hoc atomic counters with Prometheus collectors.
type KafkaMetrics struct {
	published       *prometheus.CounterVec
	consumed        *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	consumeDuration *prometheus.HistogramVec
}

func NewKafkaMetrics(reg prometheus.Registerer) *KafkaMetrics {
	m := &KafkaMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Messages published by topic and result",
		}, []string{"topic", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Messages consumed by topic and result",
		}, []string{"topic", "result"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Publish latency by topic",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
		consumeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "consume_duration_seconds",
			Help:      "Handler latency by topic",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	register(reg, m.published, m.consumed, m.publishDuration, m.consumeDuration)
	return m
}

func (m *KafkaMetrics) ObservePublish(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic, result(err)).Inc()
	m.publishDuration.WithLabelValues(topic).Observe(seconds)
}

func (m *KafkaMetrics) ObserveConsume(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(topic, result(err)).Inc()
	m.consumeDuration.WithLabelValues(topic).Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
