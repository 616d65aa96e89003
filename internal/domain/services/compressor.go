package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services/ai"
	"crea-bienestar/pkg/logger"
)

const summarizeOldestCount = 20

// CompressorMessageStore is the message access the compressor needs
type CompressorMessageStore interface {
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error)
	CountByConversation(ctx context.Context, conversationID uuid.UUID) (int, error)
}

// CompressionApplier atomically stores the summary and trims the
// history; deleted messages and their summary must land together.
type CompressionApplier interface {
	ApplyCompression(ctx context.Context, conversationID uuid.UUID, keep int, summary string) (int, error)
}

// Compressor summarizes long conversations: once a conversation passes
// the threshold, the oldest span is condensed into a short summary
// stored on the conversation and only the newest messages are kept.
type Compressor struct {
	cfg       config.ChatConfig
	messages  CompressorMessageStore
	applier   CompressionApplier
	generator ai.Generator
	logger    *logger.Logger
}

// NewCompressor creates a history compressor
func NewCompressor(cfg config.ChatConfig, messages CompressorMessageStore, applier CompressionApplier, generator ai.Generator, log *logger.Logger) *Compressor {
	return &Compressor{
		cfg:       cfg,
		messages:  messages,
		applier:   applier,
		generator: generator,
		logger:    log.WithComponent("compressor"),
	}
}

// CompressIfNeeded summarizes and trims the conversation when it has
// grown past the configured threshold. Without a ready generator the
// conversation is left untouched; losing messages without a summary
// would drop context for counselors.
func (c *Compressor) CompressIfNeeded(ctx context.Context, conversationID uuid.UUID) error {
	if c.generator == nil || !c.generator.Ready() {
		return nil
	}

	threshold := c.cfg.CompressThreshold
	if threshold <= 0 {
		threshold = 30
	}
	keep := c.cfg.CompressKeepNewest
	if keep <= 0 {
		keep = 10
	}

	count, err := c.messages.CountByConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if count <= threshold {
		return nil
	}

	oldest, err := c.messages.ListByConversation(ctx, conversationID, summarizeOldestCount, 0)
	if err != nil {
		return fmt.Errorf("failed to load oldest messages: %w", err)
	}
	if len(oldest) == 0 {
		return nil
	}

	summary, err := c.summarize(ctx, oldest)
	if err != nil {
		return fmt.Errorf("failed to summarize conversation: %w", err)
	}

	title := summary
	if runes := []rune(title); len(runes) > 100 {
		title = string(runes[:100])
	}

	deleted, err := c.applier.ApplyCompression(ctx, conversationID, keep, title)
	if err != nil {
		return fmt.Errorf("failed to apply compression: %w", err)
	}

	c.logger.Info().
		Str("conversation_id", conversationID.String()).
		Int("deleted", deleted).
		Msg("Conversation compressed")

	return nil
}

func (c *Compressor) summarize(ctx context.Context, msgs []*models.Message) (string, error) {
	var sb strings.Builder
	for _, m := range msgs {
		speaker := "Bot"
		if m.Sender == models.SenderStudent {
			speaker = "Estudiante"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	prompt := "Resume esta conversación en 3-5 oraciones, enfocándote en los problemas principales mencionados y el estado emocional del estudiante:\n\n" + sb.String()
	return c.generator.Generate(ctx, prompt, nil)
}
