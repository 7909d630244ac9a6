// handlers/rooms.go
package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"room-leaderboard-service/middleware"
	"room-leaderboard-service/models"
	"room-leaderboard-service/services"
)

type RoomHandler struct {
	Rooms *services.RoomService

	// StreamAuth guards the settings stream when set.
	StreamAuth fiber.Handler
}

func SetupRoomRoutes(app *fiber.App, h *RoomHandler) {
	app.Get("/rooms/:id/settings", h.GetSettings)
	app.Get("/rooms/:id/settings/stream", withStreamAuth(h.StreamAuth, h.StreamSettings)...)

	// 🔐 mutations need the player context set by the gateway
	secured := app.Group("/rooms", middleware.PlayerContextMiddleware())
	secured.Post("/", h.CreateRoom)
	secured.Put("/:id/settings", h.PutSettings)
}

func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	id := h.Rooms.CreateRoom()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room_id": id})
}

func (h *RoomHandler) GetSettings(c *fiber.Ctx) error {
	current, err := h.Rooms.Current(c.Params("id"))
	if err != nil {
		return roomError(c, err)
	}
	return c.JSON(current)
}

func (h *RoomHandler) PutSettings(c *fiber.Ctx) error {
	var settings models.RoomSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid settings body"})
	}

	update, err := h.Rooms.Apply(c.UserContext(), c.Params("id"), &settings)
	if err != nil {
		return roomError(c, err)
	}
	return c.JSON(update)
}

func (h *RoomHandler) StreamSettings(c *fiber.Ctx) error {
	roomID := c.Params("id")
	current, err := h.Rooms.Current(roomID)
	if err != nil {
		return roomError(c, err)
	}
	updates, cancel, err := h.Rooms.Subscribe(roomID)
	if err != nil {
		return roomError(c, err)
	}
	return streamSSE(c, "settings", current, updates, cancel)
}

func roomError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidSettings):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("❌ [RoomSync] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update room settings"})
}
