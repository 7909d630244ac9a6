// workers/score_sync_worker.go
package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"room-leaderboard-service/bindables"
	"room-leaderboard-service/models"
	"room-leaderboard-service/services"
)

// ScoreSyncWorker polls the score listing for the room's beatmap and replaces
// the leaderboard's snapshot set whenever the listing changes.
type ScoreSyncWorker struct {
	lister    services.ScoreLister
	scheduler *services.Scheduler
	scores    *bindables.BindableList[models.ScoreSnapshot]
	beatmap   func() (int, bool)
	interval  time.Duration

	lastBeatmap     int
	lastFingerprint string
}

func NewScoreSyncWorker(
	lister services.ScoreLister,
	scheduler *services.Scheduler,
	scores *bindables.BindableList[models.ScoreSnapshot],
	beatmap func() (int, bool),
	interval time.Duration,
) *ScoreSyncWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ScoreSyncWorker{
		lister:    lister,
		scheduler: scheduler,
		scores:    scores,
		beatmap:   beatmap,
		interval:  interval,
	}
}

func (w *ScoreSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Score Sync Worker (score listing → leaderboard snapshots)…")
	go w.run(ctx)
}

func (w *ScoreSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		log.Printf("⚠️ [ScoreSync] Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				log.Printf("❌ [ScoreSync] Sync failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Score Sync Worker stopped")
			return
		}
	}
}

// SyncOnce fetches one listing page and, if it differs from the last one seen,
// queues a snapshot-set replacement on the scheduler. Reports whether it did.
func (w *ScoreSyncWorker) SyncOnce(ctx context.Context) (bool, error) {
	beatmapID, ok := w.beatmap()
	if !ok {
		return false, nil
	}

	scores, err := w.lister.ListTopScores(ctx, beatmapID, services.MaxScoresPerRequest)
	if err != nil {
		return false, fmt.Errorf("listing scores for beatmap %d: %w", beatmapID, err)
	}

	fingerprint := listingFingerprint(scores)
	if beatmapID == w.lastBeatmap && fingerprint == w.lastFingerprint {
		return false, nil
	}
	w.lastBeatmap = beatmapID
	w.lastFingerprint = fingerprint

	w.scheduler.Add(func() {
		w.scores.ReplaceAll(scores)
	})
	log.Printf("[ScoreSync] 📥 beatmap %d: %d score(s) queued for the leaderboard", beatmapID, len(scores))
	return true, nil
}

// listingFingerprint is a deterministic digest of the fields the leaderboard shows.
func listingFingerprint(scores []models.ScoreSnapshot) string {
	var sb strings.Builder
	for _, s := range scores {
		fmt.Fprintf(&sb, "%s:%s:%d:%g:%d:%d;", s.Key(), s.UserID, s.TotalScore, s.Accuracy, s.MaxCombo, s.OnlineID)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
