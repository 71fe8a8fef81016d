package handler

import (
	"net/http"

	"drxcare/internal/bookings/service"
	httputil "drxcare/pkg/http"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) OpenHold(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.HoldRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "OpenHold", err)
		return
	}

	result, err := h.service.OpenHold(r.Context(), &req)
	if err != nil {
		h.writeError(w, "OpenHold", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "OpenHold", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ConfirmHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.ConfirmHold(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ConfirmHold", err)
		return
	}
	h.writeSuccess(w, "ConfirmHold", result)
}

// CancelHold accepts an optional {"reason": "..."} body.
func (h *BookingHandler) CancelHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "CancelHold", err)
			return
		}
	}

	result, err := h.service.CancelHold(r.Context(), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "CancelHold", err)
		return
	}
	h.writeSuccess(w, "CancelHold", result)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetBooking(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetBooking", err)
		return
	}
	h.writeSuccess(w, "GetBooking", booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/holds", h.OpenHold)
	router.GET("/api/v1/holds/:id", h.GetBooking)
	router.POST("/api/v1/holds/:id/confirm", h.ConfirmHold)
	router.POST("/api/v1/holds/:id/cancel", h.CancelHold)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}
