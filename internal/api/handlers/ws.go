package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/services"
)

// wsTurnRequest is one turn sent over the chat socket.
type wsTurnRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

// wsEvent is one frame pushed back to the client.
type wsEvent struct {
	Type           string `json:"type"` // "observation", "answer" or "error"
	Content        string `json:"content"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

// StreamChat serves the websocket chat. Each inbound frame runs one turn;
// the tool observations stream back as individual frames before the
// final answer. The user id is resolved by the upgrade handler before
// the connection reaches here.
//
// Turns run under a connection-scoped context: a reader goroutine owns
// ReadJSON, and the context is cancelled as soon as the socket drops, so
// a disconnect mid-turn cancels the in-flight model and tool calls.
func StreamChat(chatService *services.ChatService, store *memory.Store, logger *logrus.Logger) func(*websocket.Conn) {
	if logger == nil {
		logger = logrus.New()
	}
	return func(c *websocket.Conn) {
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		userID, ok := c.Locals("user_id").(int64)
		if !ok {
			_ = c.WriteJSON(wsEvent{Type: "error", Content: "Not authenticated"})
			return
		}

		requests := make(chan wsTurnRequest)
		go func() {
			defer cancel()
			for {
				var req wsTurnRequest
				if err := c.ReadJSON(&req); err != nil {
					return
				}
				select {
				case requests <- req:
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			var req wsTurnRequest
			select {
			case <-ctx.Done():
				return
			case req = <-requests:
			}

			if req.Message == "" {
				_ = c.WriteJSON(wsEvent{Type: "error", Content: "Message is required"})
				continue
			}
			if req.ConversationID != nil {
				owns, err := store.UserOwnsConversation(ctx, userID, *req.ConversationID)
				if err != nil {
					logger.WithError(err).Error("conversation lookup failed")
					_ = c.WriteJSON(wsEvent{Type: "error", Content: "Failed to process message"})
					continue
				}
				if !owns {
					_ = c.WriteJSON(wsEvent{Type: "error", Content: "Conversation not found"})
					continue
				}
			}

			result, err := chatService.Ask(ctx, userID, req.Message, req.ConversationID, "")
			if err != nil {
				logger.WithError(err).Error("websocket turn failed")
				_ = c.WriteJSON(wsEvent{Type: "error", Content: "Failed to process message"})
				continue
			}

			for _, observation := range result.Observations {
				if err := c.WriteJSON(wsEvent{
					Type:           "observation",
					Content:        observation,
					ConversationID: result.ConversationID,
				}); err != nil {
					return
				}
			}
			if err := c.WriteJSON(wsEvent{
				Type:           "answer",
				Content:        result.Answer,
				ConversationID: result.ConversationID,
			}); err != nil {
				return
			}
		}
	}
}
