package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"room-leaderboard-service/middleware"
	"room-leaderboard-service/services"
)

type StreamTokenHandler struct {
	Issuer *services.StreamTokenIssuer
}

// SetupStreamTokenRoutes lets a gateway-authenticated player mint a token for
// the SSE endpoints.
func SetupStreamTokenRoutes(app *fiber.App, h *StreamTokenHandler) {
	app.Post("/stream-token", middleware.PlayerContextMiddleware(), h.Issue)
}

type streamTokenRequest struct {
	DeviceID string `json:"device_id"`
}

func (h *StreamTokenHandler) Issue(c *fiber.Ctx) error {
	var req streamTokenRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.DeviceID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "device_id is required"})
	}

	token, expires, err := h.Issuer.Issue(middleware.UserID(c), req.DeviceID)
	if err != nil {
		log.Printf("❌ [StreamToken] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue stream token"})
	}
	return c.JSON(fiber.Map{"token": token, "expires_at": expires})
}
