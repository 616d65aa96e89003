package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services"
	"crea-bienestar/pkg/logger"
)

// ChatHandler handles conversation endpoints
type ChatHandler struct {
	chat   *services.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat *services.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log.WithComponent("chat"),
	}
}

// StartConversationRequest is the body for POST /api/v1/chat/conversations
type StartConversationRequest struct {
	StudentID uuid.UUID `json:"student_id"`
}

// StartConversation handles POST /api/v1/chat/conversations
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentID == uuid.Nil {
		h.respondError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	conv, welcome, err := h.chat.StartConversation(r.Context(), req.StudentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start conversation")
		h.respondError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{
		"conversation": conv,
		"welcome":      welcome,
	})
}

// SendMessageRequest is the body for POST /api/v1/chat/conversations/{id}/messages.
// StudentID, when present, is checked against the conversation owner.
type SendMessageRequest struct {
	Content   string    `json:"content"`
	StudentID uuid.UUID `json:"student_id,omitempty"`
}

// SendMessage handles POST /api/v1/chat/conversations/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	turn, err := h.chat.SendMessage(r.Context(), id, req.StudentID, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			h.respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		if errors.Is(err, services.ErrNotConversationOwner) {
			h.respondError(w, http.StatusForbidden, "conversation belongs to another student")
			return
		}
		if errors.Is(err, services.ErrConversationClosed) {
			h.respondError(w, http.StatusConflict, "conversation is closed")
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to process message")
		h.respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.respondJSON(w, http.StatusOK, turn)
}

// GetConversation handles GET /api/v1/chat/conversations/{id}
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	conv, messages, err := h.chat.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			h.respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to get conversation")
		h.respondError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

// ListMessages handles GET /api/v1/chat/conversations/{id}/messages.
// An optional student_id query param enforces ownership.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	studentID := uuid.Nil
	if v := r.URL.Query().Get("student_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid student_id")
			return
		}
		studentID = parsed
	}

	limit, offset := paginationParams(r, 100)

	messages, err := h.chat.ListMessages(r.Context(), id, studentID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			h.respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		if errors.Is(err, services.ErrNotConversationOwner) {
			h.respondError(w, http.StatusForbidden, "conversation belongs to another student")
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to list messages")
		h.respondError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"data":   messages,
		"limit":  limit,
		"offset": offset,
	})
}

// ListConversations handles GET /api/v1/chat/conversations?student_id=...
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(r.URL.Query().Get("student_id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	limit, offset := paginationParams(r, 20)

	conversations, err := h.chat.ListConversations(r.Context(), studentID, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list conversations")
		h.respondError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"data":   conversations,
		"limit":  limit,
		"offset": offset,
	})
}

// CloseConversation handles POST /api/v1/chat/conversations/{id}/close
func (h *ChatHandler) CloseConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	if err := h.chat.CloseConversation(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			h.respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to close conversation")
		h.respondError(w, http.StatusInternalServerError, "failed to close conversation")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *ChatHandler) conversationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid conversation id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ChatHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *ChatHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// paginationParams reads limit/offset query params with sane bounds.
func paginationParams(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
