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

// ConversationRepository handles conversation persistence
type ConversationRepository struct {
	db database.DBTX
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db database.DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation
func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.CurrentLevel == "" {
		c.CurrentLevel = models.RiskLow
	}

	query := `
		INSERT INTO conversations (
			id, student_id, title, current_score, current_level,
			message_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.StudentID, c.Title, c.CurrentScore, c.CurrentLevel,
		c.MessageCount, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return c, nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, student_id, title, current_score, current_level,
			   message_count, created_at, updated_at, closed_at
		FROM conversations
		WHERE id = $1`

	return r.scanConversation(r.db.QueryRow(ctx, query, id))
}

// ListByStudent retrieves a student's conversations, newest first
func (r *ConversationRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, student_id, title, current_score, current_level,
			   message_count, created_at, updated_at, closed_at
		FROM conversations
		WHERE student_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		c, err := r.scanConversationFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateRisk writes the conversation's current score and level
func (r *ConversationRepository) UpdateRisk(ctx context.Context, id uuid.UUID, score int, level models.RiskLevel) error {
	query := `
		UPDATE conversations
		SET current_score = $2, current_level = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, score, level, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update conversation risk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}

// SetTitle replaces the conversation title (used by history compression
// to store the generated summary)
func (r *ConversationRepository) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE conversations SET title = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, title, time.Now()); err != nil {
		return fmt.Errorf("failed to set conversation title: %w", err)
	}
	return nil
}

// AdjustMessageCount shifts message_count by delta (negative after compression)
func (r *ConversationRepository) AdjustMessageCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE conversations
		SET message_count = GREATEST(message_count + $2, 0), updated_at = $3
		WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, delta, time.Now()); err != nil {
		return fmt.Errorf("failed to adjust message count: %w", err)
	}
	return nil
}

// Close marks a conversation as closed
func (r *ConversationRepository) Close(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE conversations SET closed_at = $2, updated_at = $2 WHERE id = $1 AND closed_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to close conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s not found or already closed", id)
	}
	return nil
}

func (r *ConversationRepository) scanConversation(row pgx.Row) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := row.Scan(
		&c.ID, &c.StudentID, &c.Title, &c.CurrentScore, &c.CurrentLevel,
		&c.MessageCount, &c.CreatedAt, &c.UpdatedAt, &c.ClosedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepository) scanConversationFromRows(rows pgx.Rows) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := rows.Scan(
		&c.ID, &c.StudentID, &c.Title, &c.CurrentScore, &c.CurrentLevel,
		&c.MessageCount, &c.CreatedAt, &c.UpdatedAt, &c.ClosedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return c, nil
}
