package services

import (
	"sync"

	"room-leaderboard-service/bindables"
	"room-leaderboard-service/models"
)

// LiveScoreProvider hands out a continuously updated total for a snapshot and
// lets the owner drop totals whose snapshots are gone.
type LiveScoreProvider interface {
	GetBindableTotalScore(s models.ScoreSnapshot) *bindables.Bindable[int64]
	Forget(keep []models.ScoreSnapshot)
}

type liveTotal struct {
	bindable *bindables.Bindable[int64]
	seed     int64
}

// ScoreManager keeps one live total per snapshot key. A lookup reseeds the
// total only when the snapshot carries a different total than the last lookup,
// so pushes through SetTotal survive rebuilds from unchanged snapshots.
type ScoreManager struct {
	mu     sync.Mutex
	totals map[string]*liveTotal
}

func NewScoreManager() *ScoreManager {
	return &ScoreManager{totals: make(map[string]*liveTotal)}
}

func (m *ScoreManager) GetBindableTotalScore(s models.ScoreSnapshot) *bindables.Bindable[int64] {
	key := s.Key()

	m.mu.Lock()
	lt, ok := m.totals[key]
	if !ok {
		lt = &liveTotal{bindable: bindables.NewBindable(s.TotalScore), seed: s.TotalScore}
		m.totals[key] = lt
		m.mu.Unlock()
		return lt.bindable
	}
	reseed := lt.seed != s.TotalScore
	lt.seed = s.TotalScore
	m.mu.Unlock()

	// notify outside the lock, listeners may call back into the manager
	if reseed {
		lt.bindable.SetValue(s.TotalScore)
	}
	return lt.bindable
}

// SetTotal pushes a live total. Returns false when no snapshot with that key was bound yet.
func (m *ScoreManager) SetTotal(key string, total int64) bool {
	m.mu.Lock()
	lt, ok := m.totals[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	lt.bindable.SetValue(total)
	return true
}

// Forget drops live totals that are no longer referenced by any snapshot.
func (m *ScoreManager) Forget(keep []models.ScoreSnapshot) {
	live := make(map[string]struct{}, len(keep))
	for _, s := range keep {
		live[s.Key()] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.totals {
		if _, ok := live[key]; !ok {
			delete(m.totals, key)
		}
	}
}
