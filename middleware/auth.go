// middleware/auth.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

const UserIDLocal = "user_id"

// PlayerContextMiddleware requires the X-User-ID header set by the Gateway and
// exposes it to handlers as c.Locals(UserIDLocal).
func PlayerContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// UserID returns the caller set by PlayerContextMiddleware, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}
