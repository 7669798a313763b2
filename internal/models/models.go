package models

import (
	"strings"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TitleMaxLen is the display length conversation titles are truncated to.
const TitleMaxLen = 50

// User represents a registered user
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Conversation represents a chat conversation owned by a single user
type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Summary   string    `json:"summary" db:"summary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message represents a single message in a conversation. Messages are
// append-only; the insertion id is the authoritative ordering.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"time" db:"created_at"`
}

// ConversationListing is a display row for a user's conversation list.
// Title falls back from summary to the first message to a placeholder.
type ConversationListing struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	CreatedAt *time.Time `json:"created_at"`
}

// TruncateTitle whitespace-trims s and cuts it to at most TitleMaxLen runes.
func TruncateTitle(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > TitleMaxLen {
		return string(runes[:TitleMaxLen])
	}
	return s
}
