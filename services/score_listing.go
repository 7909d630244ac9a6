package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"room-leaderboard-service/models"
)

// ScoreLister returns the best scores on a beatmap, highest first.
type ScoreLister interface {
	ListTopScores(ctx context.Context, beatmapID, limit int) ([]models.ScoreSnapshot, error)
}

type GormScoreLister struct {
	DB *gorm.DB
}

func NewGormScoreLister(db *gorm.DB) *GormScoreLister {
	return &GormScoreLister{DB: db}
}

// ListTopScores keeps each user's best score only. limit is capped to one listing page.
func (l *GormScoreLister) ListTopScores(ctx context.Context, beatmapID, limit int) ([]models.ScoreSnapshot, error) {
	if limit <= 0 || limit > MaxScoresPerRequest {
		limit = MaxScoresPerRequest
	}

	best := l.DB.Model(&models.ScoreSnapshot{}).
		Select("DISTINCT ON (user_id) *").
		Where("beatmap_id = ?", beatmapID).
		Order("user_id, total_score DESC, submitted_at ASC")

	var scores []models.ScoreSnapshot
	err := l.DB.WithContext(ctx).
		Table("(?) AS best", best).
		Order("total_score DESC, submitted_at ASC").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for beatmap %d: %w", beatmapID, err)
	}
	return scores, nil
}
