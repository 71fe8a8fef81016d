package events

import (
	"testing"

	"drxcare/pkg/config"
	"drxcare/pkg/kafka"
	"drxcare/pkg/logger"
	"drxcare/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_Disabled(t *testing.T) {
	cfg := &config.Config{Log: logger.Discard()}

	pub, closeFn, err := NewPublisher(cfg, "booking-events", "", nil)
	require.NoError(t, err)
	assert.IsType(t, kafka.NopPublisher{}, pub)
	closeFn()
}

func TestNewPublisher_Enabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg := &config.Config{Log: logger.Discard(), EventsEnabled: true}
	m := metrics.NewKafkaMetrics(prometheus.NewRegistry())

	pub, closeFn, err := NewPublisher(cfg, "booking-events", "booking-events-dlq", m)
	require.NoError(t, err)
	assert.IsType(t, &kafka.Producer{}, pub)
	closeFn()
}
