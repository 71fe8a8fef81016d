package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAvailabilityService struct {
	getFunc func(ctx context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error)
}

func (m *mockAvailabilityService) GetAvailableSlots(ctx context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error) {
	return m.getFunc(ctx, doctorID, date, timeZone)
}

func TestGetSlots(t *testing.T) {
	var gotDoctor, gotDate, gotTZ string
	svc := &mockAvailabilityService{
		getFunc: func(_ context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error) {
			gotDoctor, gotDate, gotTZ = doctorID, date, timeZone
			start := time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)
			return &model.AvailableSlots{
				DoctorID:    doctorID,
				Date:        date,
				TimeZone:    timeZone,
				DurationMin: 30,
				Slots:       []model.Slot{{Start: start, End: start.Add(30 * time.Minute)}},
			}, nil
		},
	}

	router := httprouter.New()
	NewAvailabilityHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc_1/slots?date=2030-03-04&time_zone=Europe/Berlin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotDoctor != "doc_1" || gotDate != "2030-03-04" || gotTZ != "Europe/Berlin" {
		t.Errorf("service got %q %q %q", gotDoctor, gotDate, gotTZ)
	}

	var resp struct {
		Data model.AvailableSlots `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data.Slots) != 1 || resp.Data.DurationMin != 30 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestGetSlots_InvalidConfiguration(t *testing.T) {
	svc := &mockAvailabilityService{
		getFunc: func(context.Context, string, string, string) (*model.AvailableSlots, error) {
			return nil, apperrors.InvalidConfiguration("consultation duration must be positive, got 0")
		},
	}

	router := httprouter.New()
	NewAvailabilityHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc_1/slots?date=2030-03-04", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
