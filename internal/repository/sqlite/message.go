package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/finsight/finsight-backend/internal/models"
)

// MessageRepository handles message database operations. Messages are
// append-only and ordered by their insertion id.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to a conversation
func (r *MessageRepository) Create(ctx context.Context, conversationID int64, role, content string) error {
	query := `
		INSERT INTO messages (conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, conversationID, role, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// CountByConversation returns the number of messages in a conversation
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`

	if err := r.db.GetContext(ctx, &count, query, conversationID); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// Recent returns at most limit messages from the tail of the conversation,
// newest-first. Callers wanting chronological order reverse the slice.
func (r *MessageRepository) Recent(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY id DESC
		LIMIT ?`

	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	return messages, nil
}

// ListByConversation returns the full message history, oldest-first
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY id ASC`

	if err := r.db.SelectContext(ctx, &messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
