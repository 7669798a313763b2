package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/finsight/finsight-backend/internal/auth"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
)

// AuthRequired creates a middleware that requires a valid bearer token.
func AuthRequired(jwtService *auth.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" || token == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization header",
			})
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		userID, err := auth.UserIDFromClaims(claims)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		c.Locals(userIDKey, userID)
		c.Locals(usernameKey, claims.Username)
		return c.Next()
	}
}

// GetUserID returns the authenticated user id set by AuthRequired.
func GetUserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(userIDKey).(int64)
	return id, ok
}

// GetUsername returns the authenticated username set by AuthRequired.
func GetUsername(c *fiber.Ctx) string {
	username, _ := c.Locals(usernameKey).(string)
	return username
}
