package services

import (
	"room-leaderboard-service/bindables"
	"room-leaderboard-service/models"
)

// LeaderboardEntry is a live row owned by a Ranking. Its score fields are
// bindables so they can follow external values; the entry keeps the handles of
// every external binding and drops them on release.
type LeaderboardEntry struct {
	User         models.User
	TotalScore   *bindables.Bindable[int64]
	Accuracy     *bindables.Bindable[float64]
	Combo        *bindables.Bindable[int]
	DisplayOrder *bindables.Bindable[int64]

	// ScorePosition is nil when the rank is unknown.
	ScorePosition *int
	IsTracked     bool

	seq           int
	snapshotKey   string // empty for the tracked entry
	subscriptions []*bindables.Subscription
	released      bool
}

func newLeaderboardEntry(user models.User, tracked bool, seq int) *LeaderboardEntry {
	return &LeaderboardEntry{
		User:         user,
		TotalScore:   bindables.NewBindable[int64](0),
		Accuracy:     bindables.NewBindable[float64](1),
		Combo:        bindables.NewBindable[int](0),
		DisplayOrder: bindables.NewBindable[int64](0),
		IsTracked:    tracked,
		seq:          seq,
	}
}

func (e *LeaderboardEntry) track(sub *bindables.Subscription) {
	if e.released {
		sub.Unsubscribe()
		return
	}
	e.subscriptions = append(e.subscriptions, sub)
}

func (e *LeaderboardEntry) release() {
	e.released = true
	for _, sub := range e.subscriptions {
		sub.Unsubscribe()
	}
	e.subscriptions = nil
}

// Row projects the entry into its read-only form.
func (e *LeaderboardEntry) Row() models.LeaderboardRow {
	var pos *int
	if e.ScorePosition != nil {
		p := *e.ScorePosition
		pos = &p
	}
	return models.LeaderboardRow{
		UserID:        e.User.ID,
		Username:      e.User.Username,
		TotalScore:    e.TotalScore.Value(),
		Accuracy:      e.Accuracy.Value(),
		Combo:         e.Combo.Value(),
		DisplayOrder:  e.DisplayOrder.Value(),
		ScorePosition: pos,
		IsTracked:     e.IsTracked,
	}
}
