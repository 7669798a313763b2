// Package memory implements the durable conversation store with bounded
// context retrieval and triggered summary compaction.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/finsight/finsight-backend/internal/auth"
	"github.com/finsight/finsight-backend/internal/models"
	sqliterepo "github.com/finsight/finsight-backend/internal/repository/sqlite"
)

// DefaultMaxTurns is the message count at which a conversation is
// resummarized. The check is count >= max, so compaction re-fires on
// every append once the threshold has been crossed. That is the intended
// tradeoff: the summary always digests the full history, and the write
// path pays the latency rather than a background job.
const DefaultMaxTurns = 6

// Summarizer condenses a rendered conversation context into a short
// digest. A failing summarizer never fails the surrounding turn.
type Summarizer func(ctx context.Context, text string) (string, error)

// Store is the conversation memory store. All operations are
// self-contained; no operation holds a transaction across the summarizer
// call.
type Store struct {
	users     *sqliterepo.UserRepository
	convs     *sqliterepo.ConversationRepository
	msgs      *sqliterepo.MessageRepository
	summarize Summarizer
	maxTurns  int
	logger    *logrus.Logger
}

// NewStore creates a store over db. summarize may be nil, in which case
// compaction is disabled. maxTurns <= 0 selects DefaultMaxTurns.
func NewStore(db *sqlx.DB, summarize Summarizer, maxTurns int, logger *logrus.Logger) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		users:     sqliterepo.NewUserRepository(db),
		convs:     sqliterepo.NewConversationRepository(db),
		msgs:      sqliterepo.NewMessageRepository(db),
		summarize: summarize,
		maxTurns:  maxTurns,
		logger:    logger,
	}
}

// RegisterUser stores a new user with a one-way password hash. Returns
// false when the username is already taken; the first account's
// credential is never altered.
func (s *Store) RegisterUser(ctx context.Context, username, password string) (bool, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.users.Create(ctx, username, hash); err != nil {
		if errors.Is(err, sqliterepo.ErrUsernameTaken) {
			return false, nil
		}
		return false, fmt.Errorf("failed to register user: %w", err)
	}
	return true, nil
}

// Authenticate returns the user id when the credentials match. The same
// (0, false) comes back for an unknown user and a wrong password.
func (s *Store) Authenticate(ctx context.Context, username, password string) (int64, bool) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, false
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return 0, false
	}
	return user.ID, true
}

// CreateConversation always creates a new conversation row.
func (s *Store) CreateConversation(ctx context.Context, userID int64, title string) (int64, error) {
	return s.convs.Create(ctx, userID, title)
}

// GetOrCreateConversation returns the first conversation found for the
// user, creating one if none exists. Fallback path only; callers that
// know which conversation is active pass its id explicitly.
func (s *Store) GetOrCreateConversation(ctx context.Context, userID int64, title string) (int64, error) {
	id, err := s.convs.FirstForUser(ctx, userID)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up conversation: %w", err)
	}
	return s.convs.Create(ctx, userID, title)
}

// AppendMessage appends a message, resolving the conversation via
// GetOrCreateConversation when conversationID is nil. After the write it
// synchronously checks the conversation's message count and triggers
// resummarization once the count reaches maxTurns. Returns the
// conversation id the message landed in.
func (s *Store) AppendMessage(ctx context.Context, userID int64, role, content string, conversationID *int64) (int64, error) {
	var convID int64
	if conversationID != nil {
		convID = *conversationID
	} else {
		id, err := s.GetOrCreateConversation(ctx, userID, "")
		if err != nil {
			return 0, err
		}
		convID = id
	}

	if err := s.msgs.Create(ctx, convID, role, content); err != nil {
		return 0, err
	}

	count, err := s.msgs.CountByConversation(ctx, convID)
	if err != nil {
		return 0, err
	}
	if count >= s.maxTurns {
		s.Resummarize(ctx, convID)
	}

	return convID, nil
}

// Resummarize re-digests the conversation's full history, including the
// current summary, and replaces the stored summary. Failures are logged
// and swallowed so compaction never aborts the surrounding turn.
func (s *Store) Resummarize(ctx context.Context, conversationID int64) {
	if s.summarize == nil {
		return
	}

	text, err := s.BuildContext(ctx, conversationID, true)
	if err != nil {
		s.logger.WithError(err).WithField("conversation_id", conversationID).
			Warn("failed to build context for summarization")
		return
	}

	summary, err := s.summarize(ctx, text)
	if err != nil {
		s.logger.WithError(err).WithField("conversation_id", conversationID).
			Warn("summarizer failed")
		return
	}

	if err := s.convs.SetSummary(ctx, conversationID, summary); err != nil {
		s.logger.WithError(err).WithField("conversation_id", conversationID).
			Warn("failed to store summary")
	}
}

// BuildContext renders the conversation as summarizer input: the stored
// summary (when requested and non-empty) followed by every message as
// "Role: content".
func (s *Store) BuildContext(ctx context.Context, conversationID int64, includeSummary bool) (string, error) {
	var parts []string

	if includeSummary {
		summary, err := s.convs.GetSummary(ctx, conversationID)
		if err != nil {
			return "", err
		}
		if summary != "" {
			parts = append(parts, fmt.Sprintf("[Previous summary]: %s\n", summary))
		}
	}

	messages, err := s.msgs.ListByConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	for _, msg := range messages {
		parts = append(parts, RenderLine(msg.Role, msg.Content))
	}

	return strings.Join(parts, "\n"), nil
}

// GetSummary returns the stored summary, or "" if the conversation has
// none or does not exist.
func (s *Store) GetSummary(ctx context.Context, conversationID int64) string {
	summary, err := s.convs.GetSummary(ctx, conversationID)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read summary")
		return ""
	}
	return summary
}

// GetRecentMessages returns at most limit messages from the tail of the
// conversation, oldest-first. Missing conversations yield an empty slice.
func (s *Store) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	messages, err := s.msgs.Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	// Query fetches newest-first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListConversations returns the user's conversations newest-first, and
// guarantees the user has at least one.
func (s *Store) ListConversations(ctx context.Context, userID int64) ([]models.ConversationListing, error) {
	if _, err := s.GetOrCreateConversation(ctx, userID, ""); err != nil {
		return nil, err
	}
	return s.convs.ListForUser(ctx, userID)
}

// GetConversationMessages returns the full history, oldest-first. A
// missing conversation yields an empty slice.
func (s *Store) GetConversationMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	return s.msgs.ListByConversation(ctx, conversationID)
}

// UserOwnsConversation reports whether the conversation exists and
// belongs to the user. Missing and foreign conversations are
// indistinguishable to the caller.
func (s *Store) UserOwnsConversation(ctx context.Context, userID, conversationID int64) (bool, error) {
	owner, err := s.convs.Owner(ctx, conversationID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up conversation: %w", err)
	}
	return owner == userID, nil
}

// RenderLine formats one message for a model-facing context window.
func RenderLine(role, content string) string {
	if role != "" {
		role = strings.ToUpper(role[:1]) + role[1:]
	}
	return fmt.Sprintf("%s: %s", role, content)
}
