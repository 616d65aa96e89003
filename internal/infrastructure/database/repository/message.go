package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/infrastructure/database"
)

// MessageRepository handles message persistence
type MessageRepository struct {
	db database.DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db database.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message and bumps the conversation counter
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (
			id, conversation_id, sender, content, risk_score,
			risk_level, sentiment_score, matched_terms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.ConversationID, m.Sender, m.Content, m.RiskScore,
		nullableLevel(m.RiskLevel), m.SentimentScore, m.MatchedTerms, m.CreatedAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	bump := `UPDATE conversations SET message_count = message_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.Exec(ctx, bump, m.ConversationID, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to bump message count: %w", err)
	}

	return m, nil
}

// ListByConversation retrieves messages oldest first
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, conversation_id, sender, content, risk_score,
			   COALESCE(risk_level, ''), sentiment_score, matched_terms, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListRecent retrieves the newest n messages, returned oldest first
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID uuid.UUID, n int) ([]*models.Message, error) {
	query := `
		SELECT id, conversation_id, sender, content, risk_score,
			   COALESCE(risk_level, ''), sentiment_score, matched_terms, created_at
		FROM (
			SELECT * FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentStudentContents returns the text of the newest n student
// messages, oldest first. Used to build alert excerpts.
func (r *MessageRepository) RecentStudentContents(ctx context.Context, conversationID uuid.UUID, n int) ([]string, error) {
	query := `
		SELECT content FROM (
			SELECT content, created_at FROM messages
			WHERE conversation_id = $1 AND sender = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, conversationID, models.SenderStudent, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list student messages: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan message content: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByConversation returns the number of stored messages
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`
	if err := r.db.QueryRow(ctx, query, conversationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// DeleteOldest removes all but the newest keep messages of a
// conversation and returns how many were deleted. Used by history
// compression after the removed span has been summarized.
func (r *MessageRepository) DeleteOldest(ctx context.Context, conversationID uuid.UUID, keep int) (int, error) {
	query := `
		DELETE FROM messages
		WHERE conversation_id = $1
		AND id NOT IN (
			SELECT id FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`

	tag, err := r.db.Exec(ctx, query, conversationID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanMessages(rows pgx.Rows) ([]*models.Message, error) {
	var out []*models.Message
	for rows.Next() {
		m := &models.Message{}
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.RiskScore,
			&m.RiskLevel, &m.SentimentScore, &m.MatchedTerms, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullableLevel(l models.RiskLevel) *models.RiskLevel {
	if l == "" {
		return nil
	}
	return &l
}
