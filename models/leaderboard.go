package models

import (
	"fmt"
	"time"
)

// User identifies a participant shown on a leaderboard.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ScoreSnapshot is a point-in-time score, either listed from the score table or pushed by a client.
type ScoreSnapshot struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	BeatmapID   int       `json:"beatmap_id" gorm:"index"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	Username    string    `json:"username"`
	TotalScore  int64     `json:"total_score" gorm:"index"`
	Accuracy    float64   `json:"accuracy"`
	MaxCombo    int       `json:"max_combo"`
	OnlineID    int64     `json:"online_id" gorm:"default:0"` // <= 0 for scores never submitted online
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
}

// Key identifies the snapshot for live-total lookups.
func (s ScoreSnapshot) Key() string {
	if s.ID != "" {
		return s.ID
	}
	if s.OnlineID > 0 {
		return fmt.Sprintf("online-%d", s.OnlineID)
	}
	return "user-" + s.UserID
}

func (s ScoreSnapshot) User() User {
	return User{ID: s.UserID, Username: s.Username}
}

// ResultViewMode mirrors the tab the player picked on song select.
// Only ResultViewLocal disables the tracked-position clamp.
type ResultViewMode string

const (
	ResultViewLocal   ResultViewMode = "local"
	ResultViewGlobal  ResultViewMode = "global"
	ResultViewCountry ResultViewMode = "country"
	ResultViewFriends ResultViewMode = "friends"
)

// ParseResultViewMode falls back to global for unknown values.
func ParseResultViewMode(s string) (ResultViewMode, bool) {
	switch ResultViewMode(s) {
	case ResultViewLocal, ResultViewGlobal, ResultViewCountry, ResultViewFriends:
		return ResultViewMode(s), true
	}
	return ResultViewGlobal, false
}

// LeaderboardRow is the read-only projection of a live entry.
type LeaderboardRow struct {
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	TotalScore    int64   `json:"total_score"`
	Accuracy      float64 `json:"accuracy"`
	Combo         int     `json:"combo"`
	DisplayOrder  int64   `json:"display_order"`
	ScorePosition *int    `json:"score_position"` // nil renders as "-"
	IsTracked     bool    `json:"is_tracked"`
}

// LeaderboardView is an ordered, immutable view published after every rebuild, sort or visibility change.
type LeaderboardView struct {
	Entries     []LeaderboardRow `json:"entries"`
	Shown       bool             `json:"shown"`
	Revision    uint64           `json:"revision"`
	GeneratedAt int64            `json:"generated_at"` // Unix ms
}
