package handler

import (
	"net/http"

	"drxcare/internal/availability/service"
	httputil "drxcare/pkg/http"
	"drxcare/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// GetSlots serves ?date=YYYY-MM-DD (or an RFC3339 instant) and an optional
// time_zone for the response.
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	result, err := h.service.GetAvailableSlots(r.Context(), ps.ByName("doctorId"), query.Get("date"), query.Get("time_zone"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors/:doctorId/slots", h.GetSlots)
}
