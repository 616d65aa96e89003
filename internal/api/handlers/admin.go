package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"crea-bienestar/internal/domain/services"
	"crea-bienestar/pkg/logger"
)

// AdminHandler handles maintenance endpoints
type AdminHandler struct {
	compressor *services.Compressor
	logger     *logger.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(compressor *services.Compressor, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		compressor: compressor,
		logger:     log.WithComponent("admin"),
	}
}

// CompressRequest is the body for POST /api/v1/admin/compress
type CompressRequest struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// Compress handles POST /api/v1/admin/compress - runs a history
// compression pass on one conversation
func (h *AdminHandler) Compress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConversationID == uuid.Nil {
		h.respondError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	if err := h.compressor.CompressIfNeeded(r.Context(), req.ConversationID); err != nil {
		h.logger.Error().Err(err).Str("conversation_id", req.ConversationID.String()).Msg("compression pass failed")
		h.respondError(w, http.StatusInternalServerError, "compression failed")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *AdminHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
