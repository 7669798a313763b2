package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-backend/internal/api/handlers"
	"github.com/finsight/finsight-backend/internal/api/middleware"
	"github.com/finsight/finsight-backend/internal/auth"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/services"
)

// SetupRoutes wires the HTTP and websocket surface.
func SetupRoutes(app *fiber.App, store *memory.Store, chatService *services.ChatService,
	jwtService *auth.JWTService, logger *logrus.Logger) {

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	// Public auth routes
	authGroup := v1.Group("/auth")
	authGroup.Post("/register", handlers.Register(store))
	authGroup.Post("/login", handlers.Login(store, jwtService))

	// Protected routes
	protected := v1.Group("", middleware.AuthRequired(jwtService))
	protected.Post("/chat", handlers.Chat(chatService, store))
	protected.Get("/conversations", handlers.ListConversations(store))
	protected.Get("/conversations/:id/messages", handlers.GetConversationMessages(store))

	// Websocket chat. The upgrade handler authenticates via the token
	// query parameter and stashes the user id for the socket handler.
	app.Use("/ws/chat", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		claims, err := jwtService.ValidateToken(c.Query("token"))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		userID, err := auth.UserIDFromClaims(claims)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/ws/chat", websocket.New(handlers.StreamChat(chatService, store, logger)))
}
