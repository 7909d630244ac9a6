package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"room-leaderboard-service/models"
)

var ErrArchiveDisabled = errors.New("standings archive is not configured")

// ObjectUploader stores a blob and returns where it can be fetched from.
type ObjectUploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// StandingsArchiver publishes the final standings of a session as a JSON object.
type StandingsArchiver struct {
	uploader ObjectUploader
	now      func() time.Time
}

// NewStandingsArchiver accepts a nil uploader; Archive then returns ErrArchiveDisabled.
func NewStandingsArchiver(uploader ObjectUploader) *StandingsArchiver {
	return &StandingsArchiver{uploader: uploader, now: time.Now}
}

type archivedStandings struct {
	SessionID  string                 `json:"session_id"`
	ArchivedAt time.Time              `json:"archived_at"`
	Standings  models.LeaderboardView `json:"standings"`
}

func (a *StandingsArchiver) Archive(ctx context.Context, sessionID string, view models.LeaderboardView) (string, error) {
	if a.uploader == nil {
		return "", ErrArchiveDisabled
	}

	body, err := json.Marshal(archivedStandings{
		SessionID:  sessionID,
		ArchivedAt: a.now().UTC(),
		Standings:  view,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode standings: %w", err)
	}

	key := fmt.Sprintf("standings/%s/%s.json", sessionID, uuid.NewString())
	url, err := a.uploader.PutObject(ctx, key, body, "application/json")
	if err != nil {
		return "", err
	}
	log.Printf("✅ [Archive] session %s standings (%d entries) -> %s", sessionID, len(view.Entries), url)
	return url, nil
}
