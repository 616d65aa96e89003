package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crea-bienestar/internal/infrastructure/database"
)

// Repositories holds all repository instances
type Repositories struct {
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Alerts        *AlertRepository

	db *database.PostgresDB
}

// NewRepositories creates all repository instances over the database
func NewRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Conversations: NewConversationRepository(db.Pool()),
		Messages:      NewMessageRepository(db.Pool()),
		Alerts:        NewAlertRepository(db.Pool()),
		db:            db,
	}
}

// ApplyCompression stores the generated summary as the conversation
// title, trims the history to the newest keep messages and fixes the
// message counter, all in one transaction so a failure cannot leave
// deleted messages without their summary. Returns how many messages
// were removed.
func (r *Repositories) ApplyCompression(ctx context.Context, conversationID uuid.UUID, keep int, summary string) (int, error) {
	var deleted int
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		convs := NewConversationRepository(tx)
		msgs := NewMessageRepository(tx)

		if err := convs.SetTitle(ctx, conversationID, summary); err != nil {
			return err
		}
		n, err := msgs.DeleteOldest(ctx, conversationID, keep)
		if err != nil {
			return err
		}
		deleted = n
		if deleted > 0 {
			return convs.AdjustMessageCount(ctx, conversationID, -deleted)
		}
		return nil
	})
	return deleted, err
}
