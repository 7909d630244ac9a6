package services

import (
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"room-leaderboard-service/bindables"
	"room-leaderboard-service/models"
)

// LeaderboardDeps are the collaborators a LeaderboardEngine is built from.
type LeaderboardDeps struct {
	Scheduler    *Scheduler
	ScoreManager LiveScoreProvider
	Processor    TrackedScoreSource
	Config       *GameplayConfig

	// MaxScoresPerPage defaults to MaxScoresPerRequest.
	MaxScoresPerPage int
}

// LeaderboardEngine keeps a live, ranked leaderboard for one gameplay session.
//
// Scores is the snapshot source: adding, removing or resetting snapshots
// rebuilds every entry, replacing one snapshot updates its entry in place.
// Rebuilds and sorts are coalesced through the scheduler, so any number of
// triggers inside one turn produce a single run on the next turn.
//
// All mutation must happen on the scheduler turn; View and Subscribe are safe
// to use from any goroutine.
type LeaderboardEngine struct {
	Scores *bindables.BindableList[models.ScoreSnapshot]

	// AlwaysVisible shows the board regardless of the configured visibility.
	AlwaysVisible *bindables.Bindable[bool]

	trackingUser models.User
	scheduler    *Scheduler
	scoreManager LiveScoreProvider
	processor    TrackedScoreSource
	config       *GameplayConfig

	ranking *Ranking
	shown   *bindables.Bindable[bool]

	rebuildKey string
	sortKey    string

	subscriptions []*bindables.Subscription
	revision      uint64

	view    atomic.Pointer[models.LeaderboardView]
	updates *Broadcaster[models.LeaderboardView]
}

func NewLeaderboardEngine(trackingUser models.User, deps LeaderboardDeps) *LeaderboardEngine {
	maxPerPage := deps.MaxScoresPerPage
	if maxPerPage <= 0 {
		maxPerPage = MaxScoresPerRequest
	}

	id := uuid.NewString()
	e := &LeaderboardEngine{
		Scores:        bindables.NewBindableList[models.ScoreSnapshot](),
		AlwaysVisible: bindables.NewBindable(true),
		trackingUser:  trackingUser,
		scheduler:     deps.Scheduler,
		scoreManager:  deps.ScoreManager,
		processor:     deps.Processor,
		config:        deps.Config,
		shown:         bindables.NewBindable(false),
		rebuildKey:    "leaderboard:" + id + ":rebuild",
		sortKey:       "leaderboard:" + id + ":sort",
		updates:       NewBroadcaster[models.LeaderboardView](16),
	}
	e.ranking = NewRanking(DefaultComparator,
		TrackedPositionClamp(e.config.ResultViewMode.Value, maxPerPage))

	e.view.Store(&models.LeaderboardView{Entries: []models.LeaderboardRow{}})
	return e
}

// Start binds the engine to its sources. The first rebuild runs on the next turn.
func (e *LeaderboardEngine) Start() {
	e.subscriptions = append(e.subscriptions,
		e.Scores.BindCollectionChanged(e.onScoresChanged, true),
		e.shown.BindValueChanged(func(bindables.ValueChangedEvent[bool]) { e.publish() }, false),
		e.AlwaysVisible.BindValueChanged(func(bindables.ValueChangedEvent[bool]) { e.updateVisibility() }, false),
		e.config.LeaderboardVisible.BindValueChanged(func(bindables.ValueChangedEvent[bool]) { e.updateVisibility() }, true),
		e.config.ResultViewMode.BindValueChanged(func(bindables.ValueChangedEvent[models.ResultViewMode]) { e.scheduleSort() }, false),
	)
}

// Stop releases every binding held by the engine and its entries.
func (e *LeaderboardEngine) Stop() {
	for _, sub := range e.subscriptions {
		sub.Unsubscribe()
	}
	e.subscriptions = nil
	e.ranking.Clear()
}

// View returns the last published ordered view.
func (e *LeaderboardEngine) View() models.LeaderboardView {
	return *e.view.Load()
}

// Subscribe streams every view published from now on.
func (e *LeaderboardEngine) Subscribe() (<-chan models.LeaderboardView, func()) {
	return e.updates.Subscribe()
}

// Shown reports whether the board is currently presented.
func (e *LeaderboardEngine) Shown() bool {
	return e.shown.Value()
}

// Entries exposes the live entries in ranked order. Callers must not mutate them.
func (e *LeaderboardEngine) Entries() []*LeaderboardEntry {
	return e.ranking.Entries()
}

// TrackedEntry returns the local participant's entry, or nil before the first non-empty rebuild.
func (e *LeaderboardEngine) TrackedEntry() *LeaderboardEntry {
	return e.ranking.Tracked()
}

func (e *LeaderboardEngine) onScoresChanged(ev bindables.CollectionChangedEvent[models.ScoreSnapshot]) {
	if ev.Action == bindables.ActionReplace && len(ev.OldItems) == 1 && len(ev.NewItems) == 1 {
		e.applySnapshotUpdate(ev.OldItems[0], ev.NewItems[0])
		return
	}
	e.scheduleRebuild()
}

func (e *LeaderboardEngine) scheduleRebuild() {
	e.scheduler.AddOnce(e.rebuildKey, e.rebuild)
}

func (e *LeaderboardEngine) scheduleSort() {
	e.scheduler.AddOnce(e.sortKey, e.sort)
}

// applySnapshotUpdate handles a single snapshot being replaced. Identity changes
// fall back to a rebuild.
func (e *LeaderboardEngine) applySnapshotUpdate(old, updated models.ScoreSnapshot) {
	entry := e.ranking.Find(updated.UserID)
	if entry == nil || entry.snapshotKey != old.Key() || old.UserID != updated.UserID || old.Key() != updated.Key() {
		e.scheduleRebuild()
		return
	}

	entry.Accuracy.SetValue(updated.Accuracy)
	entry.Combo.SetValue(updated.MaxCombo)
	entry.DisplayOrder.SetValue(displayOrderFor(updated))
	// reseeds the shared total when the snapshot carries a new one
	e.scoreManager.GetBindableTotalScore(updated)
	e.scheduleSort()
}

func (e *LeaderboardEngine) rebuild() {
	e.ranking.Clear()

	snapshots := e.Scores.Items()
	if len(snapshots) == 0 {
		e.publish()
		return
	}

	e.scoreManager.Forget(snapshots)

	seen := make(map[string]struct{}, len(snapshots))
	for _, s := range snapshots {
		if _, dup := seen[s.UserID]; dup {
			log.Printf("[Leaderboard] ⚠️ skipping duplicate snapshot %s for user %s", s.Key(), s.UserID)
			continue
		}
		seen[s.UserID] = struct{}{}

		entry := e.ranking.Add(s.User(), false)
		entry.snapshotKey = s.Key()
		entry.Accuracy.SetValue(s.Accuracy)
		entry.Combo.SetValue(s.MaxCombo)
		entry.DisplayOrder.SetValue(displayOrderFor(s))
		entry.track(entry.TotalScore.BindTo(e.scoreManager.GetBindableTotalScore(s)))
		entry.track(entry.TotalScore.BindValueChanged(e.onTotalChanged, false))
	}

	local := e.ranking.Add(e.trackingUser, true)
	local.track(local.TotalScore.BindTo(e.processor.TotalScoreBindable()))
	local.track(local.Accuracy.BindTo(e.processor.AccuracyBindable()))
	local.track(local.Combo.BindTo(e.processor.HighestComboBindable()))
	// the local score always shows below existing scores on ties
	local.DisplayOrder.SetValue(math.MaxInt64)
	local.track(local.TotalScore.BindValueChanged(e.onTotalChanged, false))

	e.sort()
}

func (e *LeaderboardEngine) onTotalChanged(bindables.ValueChangedEvent[int64]) {
	e.scheduleSort()
}

func (e *LeaderboardEngine) sort() {
	e.ranking.Sort()
	e.publish()
}

func (e *LeaderboardEngine) updateVisibility() {
	e.shown.SetValue(e.AlwaysVisible.Value() || e.config.LeaderboardVisible.Value())
}

func (e *LeaderboardEngine) publish() {
	e.revision++
	view := &models.LeaderboardView{
		Entries:     e.ranking.Rows(),
		Shown:       e.shown.Value(),
		Revision:    e.revision,
		GeneratedAt: time.Now().UnixMilli(),
	}
	e.view.Store(view)
	e.updates.Publish(*view)
}

// displayOrderFor prefers the online id; scores never submitted online fall back
// to their submission time.
func displayOrderFor(s models.ScoreSnapshot) int64 {
	if s.OnlineID > 0 {
		return s.OnlineID
	}
	return s.SubmittedAt.Unix()
}
