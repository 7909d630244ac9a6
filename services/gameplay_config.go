package services

import (
	"room-leaderboard-service/bindables"
	"room-leaderboard-service/config"
	"room-leaderboard-service/models"
)

// GameplayConfig is the injected handle onto the user-facing settings the
// leaderboard reacts to.
type GameplayConfig struct {
	LeaderboardVisible *bindables.Bindable[bool]
	ResultViewMode     *bindables.Bindable[models.ResultViewMode]
}

func NewGameplayConfig(visible bool, mode models.ResultViewMode) *GameplayConfig {
	return &GameplayConfig{
		LeaderboardVisible: bindables.NewBindable(visible),
		ResultViewMode:     bindables.NewBindable(mode),
	}
}

// GameplayConfigFromEnv seeds the bindables from the loaded process config.
func GameplayConfigFromEnv(cfg *config.Config) *GameplayConfig {
	return NewGameplayConfig(cfg.LeaderboardVisible, cfg.ResultViewMode)
}
