package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/finsight/finsight-backend/internal/api/middleware"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/services"
)

// ChatRequest represents one user turn
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	SystemPrompt   string `json:"system_prompt,omitempty"`
}

// Chat runs one turn through the session orchestrator. An explicit
// conversation id must belong to the authenticated user; missing and
// foreign conversations get the same not-found answer.
func Chat(chatService *services.ChatService, store *memory.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.GetUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		var req ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		if req.Message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required",
			})
		}

		if req.ConversationID != nil {
			owns, err := store.UserOwnsConversation(c.Context(), userID, *req.ConversationID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to process message",
				})
			}
			if !owns {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Conversation not found",
				})
			}
		}

		result, err := chatService.Ask(c.Context(), userID, req.Message, req.ConversationID, req.SystemPrompt)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process message",
			})
		}

		return c.JSON(result)
	}
}
