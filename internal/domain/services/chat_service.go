package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services/ai"
	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/pkg/logger"
)

var (
	// ErrConversationNotFound is returned when the conversation id
	// does not exist
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationClosed is returned when messaging a closed
	// conversation
	ErrConversationClosed = errors.New("conversation is closed")
	// ErrNotConversationOwner is returned when a student references
	// another student's conversation
	ErrNotConversationOwner = errors.New("conversation belongs to another student")
)

// ConversationStore is the persistence surface the chat service needs
// for conversations
type ConversationStore interface {
	Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Conversation, error)
	UpdateRisk(ctx context.Context, id uuid.UUID, score int, level models.RiskLevel) error
	Close(ctx context.Context, id uuid.UUID) error
}

// MessageStore is the persistence surface for messages
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error)
	ListRecent(ctx context.Context, conversationID uuid.UUID, n int) ([]*models.Message, error)
	CountByConversation(ctx context.Context, conversationID uuid.UUID) (int, error)
}

// ScoreHistoryStore keeps the per-conversation risk score trail used
// for trend detection
type ScoreHistoryStore interface {
	PushScore(ctx context.Context, conversationID string, score, maxLen int) error
	ScoreHistory(ctx context.Context, conversationID string) ([]int, error)
}

// Escalator raises alerts out of risk analyses
type Escalator interface {
	EscalateIfNeeded(ctx context.Context, conv *models.Conversation, analysis *models.RiskAnalysis) (*models.Alert, error)
}

// ChatService orchestrates a student turn: persist, analyze, escalate,
// reply, roll the risk reading onto the conversation.
type ChatService struct {
	cfg           config.ChatConfig
	conversations ConversationStore
	messages      MessageStore
	history       ScoreHistoryStore
	analyzer      *risk.Analyzer
	generator     ai.Generator
	escalator     Escalator
	compressor    *Compressor
	logger        *logger.Logger
}

// NewChatService creates the chat orchestrator
func NewChatService(
	cfg config.ChatConfig,
	conversations ConversationStore,
	messages MessageStore,
	history ScoreHistoryStore,
	analyzer *risk.Analyzer,
	generator ai.Generator,
	escalator Escalator,
	compressor *Compressor,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		cfg:           cfg,
		conversations: conversations,
		messages:      messages,
		history:       history,
		analyzer:      analyzer,
		generator:     generator,
		escalator:     escalator,
		compressor:    compressor,
		logger:        log.WithComponent("chat-service"),
	}
}

// StartConversation opens a new conversation for the student and
// records the assistant's welcome message.
func (s *ChatService) StartConversation(ctx context.Context, studentID uuid.UUID) (*models.Conversation, *models.Message, error) {
	conv, err := s.conversations.Create(ctx, &models.Conversation{StudentID: studentID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start conversation: %w", err)
	}

	welcome, err := s.messages.Create(ctx, &models.Message{
		ConversationID: conv.ID,
		Sender:         models.SenderBot,
		Content:        ai.WelcomePrompt,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save welcome message: %w", err)
	}
	conv.MessageCount++

	s.logger.Info().
		Str("conversation_id", conv.ID.String()).
		Str("student_id", studentID.String()).
		Msg("Conversation started")

	return conv, welcome, nil
}

// SendMessage processes one student message end to end: analyze the
// text, persist it with its risk snapshot, raise an alert when the
// escalation policy fires, produce the assistant reply, update the
// conversation-level score and compress history when it grows too long.
// A non-nil studentID must own the conversation.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, studentID uuid.UUID, content string) (*models.ChatTurn, error) {
	conv, err := s.loadOwned(ctx, conversationID, studentID)
	if err != nil {
		return nil, err
	}
	if conv.ClosedAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationClosed, conversationID)
	}

	log := s.logger.WithConversationID(conv.ID.String())

	// Prior per-message scores feed trend detection
	priorScores, err := s.history.ScoreHistory(ctx, conv.ID.String())
	if err != nil {
		log.Warn().Err(err).Msg("score history unavailable, analyzing without trend context")
		priorScores = nil
	}

	analysis := s.analyzer.Analyze(content, priorScores)

	matched := make([]string, len(analysis.Matches))
	for i, m := range analysis.Matches {
		matched[i] = m.Term
	}
	if _, err := s.messages.Create(ctx, &models.Message{
		ConversationID: conv.ID,
		Sender:         models.SenderStudent,
		Content:        content,
		RiskScore:      analysis.Score,
		RiskLevel:      analysis.Level,
		SentimentScore: analysis.Sentiment.Score,
		MatchedTerms:   matched,
	}); err != nil {
		return nil, fmt.Errorf("failed to save student message: %w", err)
	}

	if err := s.history.PushScore(ctx, conv.ID.String(), analysis.Score, s.cfg.ScoreHistoryLimit); err != nil {
		log.Warn().Err(err).Msg("failed to record score history")
	}

	var alert *models.Alert
	if s.escalator != nil {
		alert, err = s.escalator.EscalateIfNeeded(ctx, conv, analysis)
		if err != nil {
			// Escalation failure must not silence the student's turn;
			// it is logged loudly and surfaced through monitoring.
			log.Error().Err(err).Int("score", analysis.Score).Msg("escalation failed")
		}
	}

	reply := s.generateReply(ctx, conv, content, analysis, log)
	replyMsg, err := s.messages.Create(ctx, &models.Message{
		ConversationID: conv.ID,
		Sender:         models.SenderBot,
		Content:        reply,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	// The conversation carries the latest per-message score and level,
	// last-write-wins, so a single crisis turn is visible on the entity
	// even after calm ones. The recency-weighted trail aggregate rides
	// along on the turn for trend displays.
	if err := s.conversations.UpdateRisk(ctx, conv.ID, analysis.Score, analysis.Level); err != nil {
		log.Warn().Err(err).Msg("failed to update conversation risk")
	}
	conv.CurrentScore = analysis.Score
	conv.CurrentLevel = analysis.Level
	allScores := append(append([]int{}, priorScores...), analysis.Score)
	trend := risk.AggregateConversationScore(allScores)

	if s.compressor != nil {
		if err := s.compressor.CompressIfNeeded(ctx, conv.ID); err != nil {
			log.Warn().Err(err).Msg("history compression failed")
		}
	}

	turn := &models.ChatTurn{
		Conversation: conv,
		Reply:        replyMsg,
		Analysis:     analysis,
		TrendScore:   trend,
		AlertCreated: alert != nil,
	}
	if alert != nil {
		turn.AlertID = &alert.ID
	}

	log.Info().
		Int("score", analysis.Score).
		Str("level", string(analysis.Level)).
		Bool("alert_created", alert != nil).
		Msg("Message processed")

	return turn, nil
}

// GetConversation returns a conversation with its messages
func (s *ChatService) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, []*models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	msgs, err := s.messages.ListByConversation(ctx, id, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return conv, msgs, nil
}

// ListConversations returns a student's conversations, newest first
func (s *ChatService) ListConversations(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	return s.conversations.ListByStudent(ctx, studentID, limit, offset)
}

// ListMessages returns a conversation's messages, oldest first. A
// non-nil studentID must own the conversation.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, studentID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	if _, err := s.loadOwned(ctx, conversationID, studentID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID, limit, offset)
}

// loadOwned fetches the conversation and, when studentID is set,
// enforces ownership.
func (s *ChatService) loadOwned(ctx context.Context, conversationID, studentID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	if studentID != uuid.Nil && conv.StudentID != studentID {
		return nil, fmt.Errorf("%w: %s", ErrNotConversationOwner, conversationID)
	}
	return conv, nil
}

// CloseConversation marks a conversation as finished
func (s *ChatService) CloseConversation(ctx context.Context, id uuid.UUID) error {
	return s.conversations.Close(ctx, id)
}

// generateReply asks the model for a response, falling back to the
// per-level canned reply when generation is unavailable or errors.
func (s *ChatService) generateReply(ctx context.Context, conv *models.Conversation, content string, analysis *models.RiskAnalysis, log *logger.Logger) string {
	if s.generator == nil || !s.generator.Ready() {
		return ai.FollowUpForLevel(analysis.Level)
	}

	history, err := s.buildHistory(ctx, conv.ID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build history, generating without context")
	}

	reply, err := s.generator.Generate(ctx, content, history)
	if err != nil {
		log.Error().Err(err).Msg("generation failed, using fallback reply")
		return ai.FallbackReply
	}
	return reply
}

// buildHistory converts the recent stored messages into generation
// turns, excluding the student message just saved.
func (s *ChatService) buildHistory(ctx context.Context, conversationID uuid.UUID) ([]ai.Turn, error) {
	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = 20
	}

	msgs, err := s.messages.ListRecent(ctx, conversationID, limit+1)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		// The newest message is the one being answered
		msgs = msgs[:len(msgs)-1]
	}

	turns := make([]ai.Turn, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := ai.RoleUser
		if m.Sender == models.SenderBot {
			role = ai.RoleModel
		}
		turns = append(turns, ai.Turn{Role: role, Text: m.Content})
	}
	return turns, nil
}
