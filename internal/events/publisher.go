// Package events wires the Kafka producer used by the HTTP services.
package events

import (
	"drxcare/pkg/config"
	"drxcare/pkg/kafka"
	kafka_config "drxcare/pkg/kafka/config"
	kafka_middleware "drxcare/pkg/kafka/middleware"
	"drxcare/pkg/metrics"
)

// NewPublisher returns a producer for topic when events are enabled and a
// NopPublisher otherwise. The returned close func is always safe to call.
func NewPublisher(cfg *config.Config, topic, dlqTopic string, m *metrics.KafkaMetrics) (kafka.Publisher, func(), error) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Events disabled, publishing to nowhere", "topic", topic)
		return kafka.NopPublisher{}, func() {}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, err
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, topic, dlqTopic, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware(m))

	closeFn := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "topic", topic, "error", err)
		}
	}
	return producer, closeFn, nil
}
