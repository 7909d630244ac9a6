// handlers/leaderboard.go
package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"room-leaderboard-service/middleware"
	"room-leaderboard-service/models"
	"room-leaderboard-service/services"
)

// LeaderboardHandler exposes the live leaderboard. Every mutation is queued on
// the scheduler and applied on the next turn; responses only acknowledge it.
type LeaderboardHandler struct {
	Engine       *services.LeaderboardEngine
	Scheduler    *services.Scheduler
	ScoreManager *services.ScoreManager
	Processor    *services.ScoreProcessor
	Config       *services.GameplayConfig
	Archiver     *services.StandingsArchiver
	SessionID    string
	TrackingUser models.User

	// StreamAuth guards the leaderboard stream when set.
	StreamAuth fiber.Handler
}

func SetupLeaderboardRoutes(app *fiber.App, h *LeaderboardHandler) {
	app.Get("/leaderboard", h.GetView)
	app.Get("/leaderboard/stream", withStreamAuth(h.StreamAuth, h.StreamView)...)

	secured := app.Group("/leaderboard", middleware.PlayerContextMiddleware())
	secured.Put("/scores", h.ReplaceScores)
	secured.Post("/scores", h.AddScore)
	secured.Patch("/scores/:user_id", h.UpdateScore)
	secured.Delete("/scores/:user_id", h.RemoveScore)
	secured.Put("/scores/:key/total", h.SetLiveTotal)
	secured.Put("/tracked", h.UpdateTracked)
	secured.Patch("/config", h.UpdateConfig)
	secured.Post("/finish", h.Finish)
}

func (h *LeaderboardHandler) GetView(c *fiber.Ctx) error {
	return c.JSON(h.Engine.View())
}

func (h *LeaderboardHandler) StreamView(c *fiber.Ctx) error {
	updates, cancel := h.Engine.Subscribe()
	return streamSSE(c, "leaderboard", h.Engine.View(), updates, cancel)
}

func (h *LeaderboardHandler) ReplaceScores(c *fiber.Ctx) error {
	var scores []models.ScoreSnapshot
	if err := c.BodyParser(&scores); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid scores body"})
	}
	for i, s := range scores {
		if strings.TrimSpace(s.UserID) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required", "index": i})
		}
	}

	h.Scheduler.Add(func() {
		h.Engine.Scores.ReplaceAll(scores)
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": len(scores)})
}

func (h *LeaderboardHandler) AddScore(c *fiber.Ctx) error {
	var score models.ScoreSnapshot
	if err := c.BodyParser(&score); err != nil || strings.TrimSpace(score.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a score with user_id is required"})
	}

	h.Scheduler.Add(func() {
		h.Engine.Scores.Add(score)
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

type scoreUpdateRequest struct {
	TotalScore *int64   `json:"total_score"`
	Accuracy   *float64 `json:"accuracy"`
	MaxCombo   *int     `json:"max_combo"`
}

func (h *LeaderboardHandler) UpdateScore(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	var req scoreUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid score update body"})
	}
	if !h.hasSnapshot(userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no score for user " + userID})
	}

	h.Scheduler.Add(func() {
		for _, s := range h.Engine.Scores.Items() {
			if s.UserID != userID {
				continue
			}
			updated := s
			if req.TotalScore != nil {
				updated.TotalScore = *req.TotalScore
			}
			if req.Accuracy != nil {
				updated.Accuracy = *req.Accuracy
			}
			if req.MaxCombo != nil {
				updated.MaxCombo = *req.MaxCombo
			}
			h.Engine.Scores.ReplaceFunc(func(it models.ScoreSnapshot) bool { return it.UserID == userID }, updated)
			return
		}
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

func (h *LeaderboardHandler) RemoveScore(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if !h.hasSnapshot(userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no score for user " + userID})
	}

	h.Scheduler.Add(func() {
		h.Engine.Scores.RemoveFunc(func(s models.ScoreSnapshot) bool { return s.UserID == userID })
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

type liveTotalRequest struct {
	TotalScore int64 `json:"total_score"`
}

func (h *LeaderboardHandler) SetLiveTotal(c *fiber.Ctx) error {
	key := c.Params("key")
	var req liveTotalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid total body"})
	}

	h.Scheduler.Add(func() {
		if !h.ScoreManager.SetTotal(key, req.TotalScore) {
			log.Printf("[Leaderboard] ⚠️ live total for unknown score %s ignored", key)
		}
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

type trackedScoreRequest struct {
	TotalScore int64   `json:"total_score"`
	Accuracy   float64 `json:"accuracy"`
	Combo      int     `json:"combo"`
}

func (h *LeaderboardHandler) UpdateTracked(c *fiber.Ctx) error {
	if caller := middleware.UserID(c); caller != h.TrackingUser.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the tracked player may report live score"})
	}
	var req trackedScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tracked score body"})
	}
	if req.Accuracy < 0 || req.Accuracy > 1 || req.Combo < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "accuracy must be within [0,1] and combo non-negative"})
	}

	h.Scheduler.Add(func() {
		h.Processor.Apply(req.TotalScore, req.Accuracy, req.Combo)
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

type configUpdateRequest struct {
	Visible        *bool   `json:"visible"`
	AlwaysVisible  *bool   `json:"always_visible"`
	ResultViewMode *string `json:"result_view_mode"`
}

func (h *LeaderboardHandler) UpdateConfig(c *fiber.Ctx) error {
	var req configUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid config body"})
	}

	var mode models.ResultViewMode
	if req.ResultViewMode != nil {
		parsed, ok := models.ParseResultViewMode(*req.ResultViewMode)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown result_view_mode " + *req.ResultViewMode})
		}
		mode = parsed
	}

	h.Scheduler.Add(func() {
		if req.Visible != nil {
			h.Config.LeaderboardVisible.SetValue(*req.Visible)
		}
		if req.AlwaysVisible != nil {
			h.Engine.AlwaysVisible.SetValue(*req.AlwaysVisible)
		}
		if req.ResultViewMode != nil {
			h.Config.ResultViewMode.SetValue(mode)
		}
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": 1})
}

func (h *LeaderboardHandler) Finish(c *fiber.Ctx) error {
	url, err := h.Archiver.Archive(c.UserContext(), h.SessionID, h.Engine.View())
	if errors.Is(err, services.ErrArchiveDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Printf("❌ [Archive] session %s: %v", h.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to archive standings"})
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *LeaderboardHandler) hasSnapshot(userID string) bool {
	for _, s := range h.Engine.Scores.Items() {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
