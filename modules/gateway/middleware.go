package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aman-wadhwa/FocusSphere/modules/auth"
)

const (
	// UserContextKey is the key used to store the identity in the Fiber context.
	UserContextKey = "user"

	// authCallTimeout bounds the credential check so a wedged validator
	// surfaces as a timeout instead of hanging the request.
	authCallTimeout = 3 * time.Second
)

// AuthMiddleware creates a middleware that validates bearer credentials.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), authCallTimeout)
		defer cancel()

		identity, err := authPort.ValidateToken(ctx, token)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse{
					Error:   "timeout",
					Message: "Credential validation timed out",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, identity)
		return c.Next()
	}
}
