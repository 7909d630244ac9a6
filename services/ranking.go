package services

import (
	"cmp"
	"fmt"
	"slices"

	"room-leaderboard-service/models"
)

// MaxScoresPerRequest is the page size of a single score listing request.
const MaxScoresPerRequest = 50

// Comparator orders two entries; negative means a ranks above b.
type Comparator func(a, b *LeaderboardEntry) int

// PositionPolicy may adjust ScorePosition after positions have been assigned.
type PositionPolicy func(entries []*LeaderboardEntry, tracked *LeaderboardEntry)

// DefaultComparator ranks by total score descending. On equal totals a tracked
// entry always loses against a snapshot entry, then lower DisplayOrder wins.
// Remaining ties keep insertion order because Sort is stable.
func DefaultComparator(a, b *LeaderboardEntry) int {
	if c := cmp.Compare(b.TotalScore.Value(), a.TotalScore.Value()); c != 0 {
		return c
	}
	if a.IsTracked != b.IsTracked {
		if a.IsTracked {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.DisplayOrder.Value(), b.DisplayOrder.Value())
}

// TrackedPositionClamp hides the tracked entry's exact position when it sits in
// last place and the board holds more entries than one listing page returns:
// the real rank lies somewhere outside the fetched page. Local results are
// complete, so the clamp never applies to them.
func TrackedPositionClamp(mode func() models.ResultViewMode, maxPerPage int) PositionPolicy {
	return func(entries []*LeaderboardEntry, tracked *LeaderboardEntry) {
		if tracked == nil || mode() == models.ResultViewLocal {
			return
		}
		if tracked.ScorePosition != nil && *tracked.ScorePosition == len(entries) && len(entries) > maxPerPage {
			tracked.ScorePosition = nil
		}
	}
}

// Ranking is an ordered set of entries with at most one tracked entry.
type Ranking struct {
	compare  Comparator
	policies []PositionPolicy

	entries []*LeaderboardEntry
	tracked *LeaderboardEntry
	nextSeq int
}

func NewRanking(compare Comparator, policies ...PositionPolicy) *Ranking {
	if compare == nil {
		compare = DefaultComparator
	}
	return &Ranking{compare: compare, policies: policies}
}

// Add appends a new entry. Adding a second tracked entry is a programming error.
func (r *Ranking) Add(user models.User, tracked bool) *LeaderboardEntry {
	if tracked && r.tracked != nil {
		panic(fmt.Sprintf("ranking already tracks user %q, refusing to track %q", r.tracked.User.ID, user.ID))
	}
	r.nextSeq++
	e := newLeaderboardEntry(user, tracked, r.nextSeq)
	r.entries = append(r.entries, e)
	if tracked {
		r.tracked = e
	}
	return e
}

// Clear releases every entry's bindings and empties the ranking.
func (r *Ranking) Clear() {
	for _, e := range r.entries {
		e.release()
	}
	r.entries = nil
	r.tracked = nil
}

// Sort orders the entries, assigns 1-based positions and applies the policies.
func (r *Ranking) Sort() {
	slices.SortStableFunc(r.entries, func(a, b *LeaderboardEntry) int {
		if c := r.compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	for i, e := range r.entries {
		pos := i + 1
		e.ScorePosition = &pos
	}

	for _, policy := range r.policies {
		policy(r.entries, r.tracked)
	}
}

// Entries returns the entries in their last sorted order.
func (r *Ranking) Entries() []*LeaderboardEntry {
	out := make([]*LeaderboardEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Ranking) Tracked() *LeaderboardEntry {
	return r.tracked
}

func (r *Ranking) Len() int {
	return len(r.entries)
}

// Find returns the first non-tracked entry for the user.
func (r *Ranking) Find(userID string) *LeaderboardEntry {
	for _, e := range r.entries {
		if !e.IsTracked && e.User.ID == userID {
			return e
		}
	}
	return nil
}

// Rows projects the current order.
func (r *Ranking) Rows() []models.LeaderboardRow {
	rows := make([]models.LeaderboardRow, 0, len(r.entries))
	for _, e := range r.entries {
		rows = append(rows, e.Row())
	}
	return rows
}
