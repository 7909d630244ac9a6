package services

import (
	"fmt"
	"testing"

	"room-leaderboard-service/models"
)

func addEntry(r *Ranking, id string, total, displayOrder int64) *LeaderboardEntry {
	e := r.Add(models.User{ID: id, Username: id}, false)
	e.TotalScore.SetValue(total)
	e.DisplayOrder.SetValue(displayOrder)
	return e
}

func positionOf(e *LeaderboardEntry) string {
	if e.ScorePosition == nil {
		return "-"
	}
	return fmt.Sprint(*e.ScorePosition)
}

func globalMode() models.ResultViewMode { return models.ResultViewGlobal }

func TestRankingOrdersByTotalThenDisplayOrder(t *testing.T) {
	r := NewRanking(DefaultComparator)
	addEntry(r, "c", 300, 1)
	addEntry(r, "b", 500, 20)
	addEntry(r, "a", 500, 10)

	r.Sort()

	got := r.Entries()
	want := []string{"a", "b", "c"}
	for i, e := range got {
		if e.User.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i+1, e.User.ID, want[i])
		}
		if *e.ScorePosition != i+1 {
			t.Errorf("%s: position %d, want %d", e.User.ID, *e.ScorePosition, i+1)
		}
	}
}

func TestRankingStableForFullTies(t *testing.T) {
	r := NewRanking(DefaultComparator)
	addEntry(r, "first", 100, 5)
	addEntry(r, "second", 100, 5)
	addEntry(r, "third", 100, 5)

	for i := 0; i < 3; i++ {
		r.Sort()
		for j, id := range []string{"first", "second", "third"} {
			if r.Entries()[j].User.ID != id {
				t.Fatalf("sort %d: full ties must keep insertion order", i)
			}
		}
	}
}

func TestRankingTrackedLosesTies(t *testing.T) {
	r := NewRanking(DefaultComparator)
	local := r.Add(models.User{ID: "me"}, true)
	local.TotalScore.SetValue(500)
	// even a larger display order on the snapshot does not let the tracked entry win
	addEntry(r, "other", 500, 1<<62)

	r.Sort()

	if r.Entries()[0].User.ID != "other" || *local.ScorePosition != 2 {
		t.Fatalf("tracked entry must rank below equal totals, got position %s", positionOf(local))
	}
}

func TestRankingRejectsSecondTrackedEntry(t *testing.T) {
	r := NewRanking(DefaultComparator)
	r.Add(models.User{ID: "me"}, true)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when adding a second tracked entry")
		}
	}()
	r.Add(models.User{ID: "also-me"}, true)
}

func TestTrackedPositionClamp(t *testing.T) {
	cases := []struct {
		name      string
		snapshots int
		mode      models.ResultViewMode
		trackedAt int64
		want      string
	}{
		{"last of 51 global", 50, models.ResultViewGlobal, 0, "-"},
		{"last of 11 global", 10, models.ResultViewGlobal, 0, "11"},
		{"last of 51 local", 50, models.ResultViewLocal, 0, "51"},
		{"first of 51 global", 50, models.ResultViewGlobal, 1 << 40, "1"},
		{"last of 50 global", 49, models.ResultViewGlobal, 0, "50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mode := tc.mode
			r := NewRanking(DefaultComparator, TrackedPositionClamp(func() models.ResultViewMode { return mode }, MaxScoresPerRequest))
			for i := 0; i < tc.snapshots; i++ {
				addEntry(r, fmt.Sprintf("u%d", i), int64(1000+i), int64(i))
			}
			local := r.Add(models.User{ID: "me"}, true)
			local.TotalScore.SetValue(tc.trackedAt)

			r.Sort()

			if got := positionOf(local); got != tc.want {
				t.Fatalf("tracked position = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTrackedPositionClampRestoredOnResort(t *testing.T) {
	r := NewRanking(DefaultComparator, TrackedPositionClamp(globalMode, MaxScoresPerRequest))
	for i := 0; i < 50; i++ {
		addEntry(r, fmt.Sprintf("u%d", i), 1000, int64(i))
	}
	local := r.Add(models.User{ID: "me"}, true)
	r.Sort()
	if local.ScorePosition != nil {
		t.Fatalf("expected clamped position")
	}

	local.TotalScore.SetValue(5000)
	r.Sort()
	if positionOf(local) != "1" {
		t.Fatalf("expected position 1 after overtaking, got %s", positionOf(local))
	}
}

func TestRankingClearReleasesBindings(t *testing.T) {
	r := NewRanking(DefaultComparator)
	source := NewScoreManager().GetBindableTotalScore(models.ScoreSnapshot{ID: "s1", TotalScore: 10})
	e := r.Add(models.User{ID: "u1"}, false)
	e.track(e.TotalScore.BindTo(source))

	if source.ListenerCount() != 1 {
		t.Fatalf("expected one listener on the source")
	}
	r.Clear()
	if source.ListenerCount() != 0 {
		t.Fatalf("Clear left %d listeners on the source", source.ListenerCount())
	}
	if r.Len() != 0 || r.Tracked() != nil {
		t.Fatalf("Clear did not empty the ranking")
	}
}

func TestRankingFindSkipsTracked(t *testing.T) {
	r := NewRanking(DefaultComparator)
	r.Add(models.User{ID: "me"}, true)
	snap := addEntry(r, "me", 10, 1)

	if got := r.Find("me"); got != snap {
		t.Fatalf("Find should return the snapshot entry")
	}
	if r.Find("nobody") != nil {
		t.Fatalf("Find returned an entry for an unknown user")
	}
}
