package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/internal/infrastructure/cache"
	"crea-bienestar/pkg/logger"
)

// RiskHandler exposes the analysis pipeline directly, without touching
// a conversation. Useful for dashboards and batch re-scoring.
type RiskHandler struct {
	analyzer *risk.Analyzer
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRiskHandler creates a new RiskHandler
func NewRiskHandler(analyzer *risk.Analyzer, c *cache.RedisCache, log *logger.Logger) *RiskHandler {
	return &RiskHandler{
		analyzer: analyzer,
		cache:    c,
		logger:   log.WithComponent("risk"),
	}
}

// AnalyzeRequest is the body for POST /api/v1/risk/analyze
type AnalyzeRequest struct {
	Message string `json:"message"`
	// PriorScores feeds escalating-trend detection; oldest first.
	PriorScores []int `json:"prior_scores,omitempty"`
	// ConversationID, when set, loads prior scores from the score
	// history instead of PriorScores.
	ConversationID string `json:"conversation_id,omitempty"`
}

// Analyze handles POST /api/v1/risk/analyze
func (h *RiskHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	priorScores := req.PriorScores
	if req.ConversationID != "" && h.cache != nil {
		scores, err := h.cache.ScoreHistory(r.Context(), req.ConversationID)
		if err != nil {
			h.logger.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("score history unavailable")
		} else {
			priorScores = scores
		}
	}

	analysis := h.analyzer.Analyze(req.Message, priorScores)
	h.respondJSON(w, http.StatusOK, analysis)
}

// Lexicon handles GET /api/v1/risk/lexicon
func (h *RiskHandler) Lexicon(w http.ResponseWriter, r *http.Request) {
	entries := risk.AllEntries()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": len(entries),
	})
}

func (h *RiskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *RiskHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
