package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	openHoldFunc    func(ctx context.Context, req *model.HoldRequest) (*model.HoldResult, error)
	confirmHoldFunc func(ctx context.Context, id string) (*model.BookingStatusResult, error)
	cancelHoldFunc  func(ctx context.Context, id, reason string) (*model.BookingStatusResult, error)
	getBookingFunc  func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockBookingService) OpenHold(ctx context.Context, req *model.HoldRequest) (*model.HoldResult, error) {
	return m.openHoldFunc(ctx, req)
}

func (m *mockBookingService) ConfirmHold(ctx context.Context, id string) (*model.BookingStatusResult, error) {
	return m.confirmHoldFunc(ctx, id)
}

func (m *mockBookingService) CancelHold(ctx context.Context, id, reason string) (*model.BookingStatusResult, error) {
	return m.cancelHoldFunc(ctx, id, reason)
}

func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return m.getBookingFunc(ctx, id)
}

func (m *mockBookingService) ReconcileCancel(context.Context, string) error {
	return nil
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestOpenHold(t *testing.T) {
	var received *model.HoldRequest
	svc := &mockBookingService{
		openHoldFunc: func(_ context.Context, req *model.HoldRequest) (*model.HoldResult, error) {
			received = req
			return &model.HoldResult{BookingID: "b1", Status: model.BookingHeld, PaymentClientSecret: "secret"}, nil
		},
	}

	body := `{"doctor_id":"doc_1","patient_id":"pat_1","slot_start":"2031-05-06T09:00:00Z","slot_end":"2031-05-06T09:30:00Z","amount":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if received == nil || received.DoctorID != "doc_1" || received.Amount != 5000 {
		t.Errorf("service received %+v", received)
	}
	if !received.SlotStart.Equal(time.Date(2031, 5, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("SlotStart = %v", received.SlotStart)
	}

	var resp struct {
		Data model.HoldResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.BookingID != "b1" || resp.Data.PaymentClientSecret != "secret" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestOpenHold_BadBody(t *testing.T) {
	called := false
	svc := &mockBookingService{
		openHoldFunc: func(context.Context, *model.HoldRequest) (*model.HoldResult, error) {
			called = true
			return nil, nil
		},
	}

	for _, body := range []string{``, `{"doctor_id":`, `{"unknown":1}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/holds", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if called {
		t.Error("service must not be called for malformed bodies")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot taken", apperrors.SlotNoLongerAvailable(), http.StatusConflict, apperrors.CodeSlotNoLongerAvailable},
		{"payment pending", apperrors.PaymentPending("processing"), http.StatusConflict, apperrors.CodePaymentPending},
		{"confirmation failed", apperrors.PaymentConfirmationFailed(nil), http.StatusPaymentRequired, apperrors.CodePaymentConfirmationFailed},
		{"not found", apperrors.NotFoundWithID("Booking", "x"), http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				confirmHoldFunc: func(context.Context, string) (*model.BookingStatusResult, error) {
					return nil, tt.err
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/abc/confirm", nil)
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
		})
	}
}

func TestCancelHold(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantReason string
	}{
		{"no body", "", ""},
		{"with reason", `{"reason":"feeling better"}`, "feeling better"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID, gotReason string
			svc := &mockBookingService{
				cancelHoldFunc: func(_ context.Context, id, reason string) (*model.BookingStatusResult, error) {
					gotID, gotReason = id, reason
					return &model.BookingStatusResult{BookingID: id, Status: model.BookingCanceled}, nil
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/b42/cancel", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if gotID != "b42" || gotReason != tt.wantReason {
				t.Errorf("service got id=%q reason=%q", gotID, gotReason)
			}
			if !strings.Contains(rec.Body.String(), `"status":"canceled"`) {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestGetBooking(t *testing.T) {
	svc := &mockBookingService{
		getBookingFunc: func(_ context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: model.BookingConfirmed}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/holds/b7", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"confirmed"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
