package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/finsight/finsight-backend/internal/auth"
	"github.com/finsight/finsight-backend/internal/memory"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
}

// Register handles user registration. A duplicate username is the only
// rejection surfaced to the client.
func Register(store *memory.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Username and password are required",
			})
		}

		ok, err := store.RegisterUser(c.Context(), req.Username, req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to register user",
			})
		}
		if !ok {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Username already exists",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"username": req.Username,
		})
	}
}

// Login authenticates a user and issues an access token. The response
// does not reveal whether the username or the password was wrong.
func Login(store *memory.Store, jwtService *auth.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		userID, ok := store.Authenticate(c.Context(), req.Username, req.Password)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid username or password",
			})
		}

		token, err := jwtService.GenerateAccessToken(userID, req.Username)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate token",
			})
		}

		return c.JSON(LoginResponse{
			AccessToken: token,
			ExpiresIn:   int(auth.AccessTokenTTL.Seconds()),
			UserID:      userID,
			Username:    req.Username,
		})
	}
}
