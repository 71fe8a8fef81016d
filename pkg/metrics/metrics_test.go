package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range metric.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestBookingMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveHold("ok")
	m.ObserveHold("ok")
	m.ObserveHold("slot_taken")
	m.ObserveRemoteCancelFailed()
	m.ObserveCompensation()

	assert.Equal(t, 2.0, counterValue(t, reg, "drxcare_bookings_holds_total", map[string]string{"result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_bookings_holds_total", map[string]string{"result": "slot_taken"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_bookings_remote_cancel_failed_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_bookings_compensations_total", nil))
}

func TestVerificationMetrics_ObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewVerificationMetrics(reg)

	m.ObserveBatch(500, nil)
	m.ObserveBatch(200, nil)
	m.ObserveBatch(500, errors.New("boom"))

	assert.Equal(t, 700.0, counterValue(t, reg, "drxcare_verification_profiles_synced_total", nil))
	assert.Equal(t, 2.0, counterValue(t, reg, "drxcare_verification_batches_total", map[string]string{"result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_verification_batches_total", map[string]string{"result": "error"}))
}

func TestKafkaMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewKafkaMetrics(reg)

	m.ObservePublish("booking-events", 0.01, nil)
	m.ObserveConsume("booking-events", 0.02, errors.New("failed"))

	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_kafka_messages_published_total", map[string]string{"topic": "booking-events", "result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "drxcare_kafka_messages_consumed_total", map[string]string{"topic": "booking-events", "result": "error"}))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var b *BookingMetrics
	var v *VerificationMetrics
	var k *KafkaMetrics

	assert.NotPanics(t, func() {
		b.ObserveHold("ok")
		b.ObserveConfirm("ok")
		b.ObserveCancel("ok")
		b.ObserveRemoteCancelFailed()
		b.ObserveCompensation()
		b.ObserveProcessorLatency("create_hold", 0.1)
		b.ObserveAvailability("ok")
		v.ObserveBatch(1, nil)
		v.ObserveStatusUpdate("verified", "ok")
		v.ObserveSyncDuration(1)
		k.ObservePublish("t", 0, nil)
		k.ObserveConsume("t", 0, nil)
	})
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
