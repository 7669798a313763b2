package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/finsight/finsight-backend/internal/models"
)

// ConversationRepository handles conversation database operations
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation row and returns its id. The summary
// column starts out as the given title, matching the write path where a
// fresh conversation is seeded with the truncated first input.
func (r *ConversationRepository) Create(ctx context.Context, userID int64, title string) (int64, error) {
	query := `INSERT INTO conversations (user_id, summary, created_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, userID, title, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}
	return res.LastInsertId()
}

// FirstForUser returns the id of the first conversation found for the
// user, or sql.ErrNoRows if the user has none.
func (r *ConversationRepository) FirstForUser(ctx context.Context, userID int64) (int64, error) {
	var id int64
	query := `SELECT id FROM conversations WHERE user_id = ? ORDER BY id ASC LIMIT 1`

	if err := r.db.GetContext(ctx, &id, query, userID); err != nil {
		return 0, err
	}
	return id, nil
}

// Owner returns the id of the user the conversation belongs to, or
// sql.ErrNoRows when the conversation does not exist.
func (r *ConversationRepository) Owner(ctx context.Context, id int64) (int64, error) {
	var userID int64
	query := `SELECT user_id FROM conversations WHERE id = ?`

	if err := r.db.GetContext(ctx, &userID, query, id); err != nil {
		return 0, err
	}
	return userID, nil
}

// GetSummary returns the stored summary, or "" when the conversation does
// not exist.
func (r *ConversationRepository) GetSummary(ctx context.Context, id int64) (string, error) {
	var summary string
	query := `SELECT summary FROM conversations WHERE id = ?`

	err := r.db.GetContext(ctx, &summary, query, id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get summary: %w", err)
	}
	return summary, nil
}

// SetSummary replaces the stored summary
func (r *ConversationRepository) SetSummary(ctx context.Context, id int64, summary string) error {
	query := `UPDATE conversations SET summary = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, summary, id); err != nil {
		return fmt.Errorf("failed to set summary: %w", err)
	}
	return nil
}

type conversationListRow struct {
	ID           int64          `db:"id"`
	Summary      string         `db:"summary"`
	FirstMessage sql.NullString `db:"first_message"`
	CreatedAt    sql.NullTime   `db:"created_at"`
}

// ListForUser returns the user's conversations newest-first, ordered by
// the time of each conversation's first message. Title resolution:
// summary, else the first message truncated for display, else a
// placeholder for conversations with no messages yet.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]models.ConversationListing, error) {
	var rows []conversationListRow
	query := `
		SELECT c.id, c.summary,
			(SELECT content FROM messages
			 WHERE conversation_id = c.id
			 ORDER BY id ASC LIMIT 1) AS first_message,
			(SELECT created_at FROM messages
			 WHERE conversation_id = c.id
			 ORDER BY id ASC LIMIT 1) AS created_at
		FROM conversations c
		WHERE c.user_id = ?
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	listings := make([]models.ConversationListing, 0, len(rows))
	for _, row := range rows {
		title := row.Summary
		if title == "" {
			title = row.FirstMessage.String
		}
		if title == "" {
			title = "New conversation"
		}

		listing := models.ConversationListing{
			ID:    row.ID,
			Title: models.TruncateTitle(title),
		}
		if row.CreatedAt.Valid {
			t := row.CreatedAt.Time
			listing.CreatedAt = &t
		}
		listings = append(listings, listing)
	}

	return listings, nil
}
