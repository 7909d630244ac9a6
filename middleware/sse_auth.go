// middleware/sse_auth.go
package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"room-leaderboard-service/services"
)

// TokenValidator checks a player access token bound to a device.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken, deviceID string) (*services.ValidateResponse, error)
}

const DeviceIDLocal = "device_id"

// SSEAuthMiddleware validates `token` and `device_id` from query params, since
// EventSource clients cannot set headers. On success the caller is exposed the
// same way PlayerContextMiddleware does.
//
// Usage:
//
//	app.Get("/leaderboard/stream", middleware.SSEAuthMiddleware(authClient), h.StreamView)
func SSEAuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		deviceID := strings.TrimSpace(c.Query("device_id"))

		if accessToken == "" || deviceID == "" {
			log.Printf("[SSEAuth] ❌ Missing query params on %s: token len=%d, device_id='%s'", c.Path(), len(accessToken), deviceID)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token or device_id in query",
			})
		}

		resp, err := validator.ValidateToken(c.UserContext(), accessToken, deviceID)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for token (prefix: %s...), device %s: %v",
				accessToken[:min(10, len(accessToken))], deviceID, err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals(UserIDLocal, resp.UserID)
		c.Locals(DeviceIDLocal, resp.DeviceID)

		log.Printf("[SSEAuth] ✅ Authenticated user %s (device %s) for %s", resp.UserID, resp.DeviceID, c.Path())
		return c.Next()
	}
}
