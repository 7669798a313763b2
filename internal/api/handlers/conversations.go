package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/finsight/finsight-backend/internal/api/middleware"
	"github.com/finsight/finsight-backend/internal/memory"
)

// ListConversations returns the authenticated user's conversation list,
// newest-first.
func ListConversations(store *memory.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.GetUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		listings, err := store.ListConversations(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list conversations",
			})
		}

		return c.JSON(fiber.Map{
			"conversations": listings,
		})
	}
}

// GetConversationMessages returns a conversation's full history,
// oldest-first. A conversation that does not exist or belongs to another
// user is reported as not found.
func GetConversationMessages(store *memory.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.GetUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		conversationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid conversation id",
			})
		}

		owns, err := store.UserOwnsConversation(c.Context(), userID, conversationID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load messages",
			})
		}
		if !owns {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}

		messages, err := store.GetConversationMessages(c.Context(), conversationID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load messages",
			})
		}

		return c.JSON(fiber.Map{
			"messages": messages,
		})
	}
}
