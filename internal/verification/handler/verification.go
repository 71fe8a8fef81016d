package handler

import (
	"net/http"

	"drxcare/internal/verification/service"
	httputil "drxcare/pkg/http"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VerificationHandler struct {
	service service.VerificationService
	log     *logger.Logger
}

func NewVerificationHandler(service service.VerificationService, log *logger.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: service,
		log:     log,
	}
}

// Sync runs a full doctor status sync. A partially committed sync is
// reported as an error; the committed count is in the error details.
func (h *VerificationHandler) Sync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.service.SyncAll(r.Context())
	if err != nil {
		h.writeError(w, "Sync", err)
		return
	}
	h.writeSuccess(w, "Sync", result)
}

func (h *VerificationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.StatusUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), ps.ByName("userId"), req.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}
	h.writeSuccess(w, "UpdateStatus", result)
}

func (h *VerificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/verification/sync", h.Sync)
	router.PUT("/api/v1/verification/:userId", h.UpdateStatus)
}

func (h *VerificationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *VerificationHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}
