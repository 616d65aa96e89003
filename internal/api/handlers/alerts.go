package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services"
	"crea-bienestar/pkg/logger"
)

// AlertsHandler handles alert endpoints for the counselor dashboard
type AlertsHandler struct {
	alerts *services.AlertService
	logger *logger.Logger
}

// NewAlertsHandler creates a new AlertsHandler
func NewAlertsHandler(alerts *services.AlertService, log *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		alerts: alerts,
		logger: log.WithComponent("alerts"),
	}
}

// List handles GET /api/v1/alerts?status=...&student_id=...
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	if studentParam := r.URL.Query().Get("student_id"); studentParam != "" {
		studentID, err := uuid.Parse(studentParam)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid student_id")
			return
		}
		alerts, err := h.alerts.ListByStudent(r.Context(), studentID, limit, offset)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to list student alerts")
			h.respondError(w, http.StatusInternalServerError, "failed to list alerts")
			return
		}
		h.respondList(w, alerts, limit, offset)
		return
	}

	filter := models.AlertFilter{
		Status: models.AlertStatus(r.URL.Query().Get("status")),
		Level:  models.RiskLevel(r.URL.Query().Get("level")),
	}
	switch assigned := r.URL.Query().Get("assigned_to"); assigned {
	case "":
	case "none":
		filter.Unassigned = true
	default:
		counselorID, err := uuid.Parse(assigned)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		filter.AssignedTo = &counselorID
	}

	alerts, err := h.alerts.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list alerts")
		h.respondError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	h.respondList(w, alerts, limit, offset)
}

// Get handles GET /api/v1/alerts/{id}
func (h *AlertsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	alert, err := h.alerts.Get(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("alert_id", id.String()).Msg("failed to get alert")
		h.respondError(w, http.StatusInternalServerError, "failed to get alert")
		return
	}
	if alert == nil {
		h.respondError(w, http.StatusNotFound, "alert not found")
		return
	}

	h.respondJSON(w, http.StatusOK, alert)
}

// AssignRequest is the body for POST /api/v1/alerts/{id}/assign
type AssignRequest struct {
	CounselorID uuid.UUID `json:"counselor_id"`
}

// Assign handles POST /api/v1/alerts/{id}/assign
func (h *AlertsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CounselorID == uuid.Nil {
		h.respondError(w, http.StatusBadRequest, "counselor_id is required")
		return
	}

	if err := h.alerts.Assign(r.Context(), id, req.CounselorID); err != nil {
		h.logger.Error().Err(err).Str("alert_id", id.String()).Msg("failed to assign alert")
		h.respondError(w, http.StatusInternalServerError, "failed to assign alert")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// UpdateStatusRequest is the body for POST /api/v1/alerts/{id}/status
type UpdateStatusRequest struct {
	Status models.AlertStatus `json:"status"`
	Notes  string             `json:"notes,omitempty"`
}

// UpdateStatus handles POST /api/v1/alerts/{id}/status
func (h *AlertsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.alertID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.alerts.UpdateStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		if errors.Is(err, services.ErrInvalidAlertStatus) {
			h.respondError(w, http.StatusBadRequest, "invalid alert status")
			return
		}
		h.logger.Error().Err(err).Str("alert_id", id.String()).Msg("failed to update alert status")
		h.respondError(w, http.StatusInternalServerError, "failed to update alert status")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// Stats handles GET /api/v1/alerts/stats
func (h *AlertsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alerts.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load alert stats")
		h.respondError(w, http.StatusInternalServerError, "failed to load alert stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *AlertsHandler) respondList(w http.ResponseWriter, alerts []*models.Alert, limit, offset int) {
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"data":   alerts,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AlertsHandler) alertID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid alert id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AlertsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *AlertsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
