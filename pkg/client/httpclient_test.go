package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "drxcare/pkg/errors"
	httputil "drxcare/pkg/http"
	"drxcare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpClient_OpenHold(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody model.HoldRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/holds", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = httputil.WriteCreated(w, model.HoldResult{BookingID: "b1", Status: model.BookingHeld})
	}))
	defer srv.Close()

	c := NewHttpClient(srv.URL)
	result, err := c.OpenHold(context.Background(), &model.HoldRequest{DoctorID: "doc_1", Amount: 5000}, "key-1")

	require.NoError(t, err)
	assert.Equal(t, "b1", result.BookingID)
	assert.Equal(t, model.BookingHeld, result.Status)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "doc_1", gotBody.DoctorID)
}

func TestHttpClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httputil.WriteError(w, apperrors.PaymentPending("processing"))
	}))
	defer srv.Close()

	_, err := NewHttpClient(srv.URL).ConfirmHold(context.Background(), "b1")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePaymentPending))
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
	assert.Equal(t, "processing", appErr.Details["payment_state"])
}

func TestHttpClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHttpClient(srv.URL).GetBooking(context.Background(), "b1")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.AsAppError(err).StatusCode())
}

func TestHttpClient_CancelHold(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		wantBody string
	}{
		{"with reason", "patient_request", `{"reason":"patient_request"}`},
		{"without reason", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/holds/b1/cancel", r.URL.Path)
				data, _ := io.ReadAll(r.Body)
				body = string(data)
				_ = httputil.WriteSuccess(w, model.BookingStatusResult{BookingID: "b1", Status: model.BookingCanceled})
			}))
			defer srv.Close()

			result, err := NewHttpClient(srv.URL).CancelHold(context.Background(), "b1", tt.reason)
			require.NoError(t, err)
			assert.Equal(t, model.BookingCanceled, result.Status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestHttpClient_GetSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/doctors/doc_1/slots", r.URL.Path)
		assert.Equal(t, "2031-05-06", r.URL.Query().Get("date"))
		assert.Equal(t, "Asia/Jerusalem", r.URL.Query().Get("time_zone"))
		_ = httputil.WriteSuccess(w, model.AvailableSlots{DoctorID: "doc_1", DurationMin: 30})
	}))
	defer srv.Close()

	slots, err := NewHttpClient(srv.URL).GetSlots(context.Background(), "doc_1", "2031-05-06", "Asia/Jerusalem")
	require.NoError(t, err)
	assert.Equal(t, 30, slots.DurationMin)
}

func TestHttpClient_WaitForHealthy(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewHttpClient(srv.URL).WaitForHealthy(ctx))
}
