package services

import (
	"testing"

	"room-leaderboard-service/models"
)

func TestScoreManagerSharesBindablePerKey(t *testing.T) {
	m := NewScoreManager()
	s := models.ScoreSnapshot{ID: "s1", UserID: "u1", TotalScore: 100}

	first := m.GetBindableTotalScore(s)
	s.TotalScore = 999
	second := m.GetBindableTotalScore(s)

	if first != second {
		t.Fatalf("expected the same bindable for the same key")
	}
	if first.Value() != 999 {
		t.Fatalf("a changed snapshot total should reseed, got %d", first.Value())
	}

	if !m.SetTotal("s1", 250) || first.Value() != 250 {
		t.Fatalf("SetTotal did not update the live total")
	}
	if m.SetTotal("unknown", 1) {
		t.Fatalf("SetTotal should report unknown keys")
	}
}

func TestScoreManagerKeepsPushedTotalForUnchangedSnapshot(t *testing.T) {
	m := NewScoreManager()
	s := models.ScoreSnapshot{ID: "s1", UserID: "u1", TotalScore: 100}
	b := m.GetBindableTotalScore(s)

	m.SetTotal("s1", 400)
	if m.GetBindableTotalScore(s).Value() != 400 {
		t.Fatalf("lookup with the same snapshot total overwrote the pushed total")
	}

	s.TotalScore = 150
	if m.GetBindableTotalScore(s) != b || b.Value() != 150 {
		t.Fatalf("changed snapshot total not applied, got %d", b.Value())
	}
}

func TestScoreManagerForget(t *testing.T) {
	m := NewScoreManager()
	keep := models.ScoreSnapshot{ID: "keep"}
	drop := models.ScoreSnapshot{ID: "drop"}
	m.GetBindableTotalScore(keep)
	m.GetBindableTotalScore(drop)

	m.Forget([]models.ScoreSnapshot{keep})

	if !m.SetTotal("keep", 1) {
		t.Errorf("kept key was forgotten")
	}
	if m.SetTotal("drop", 1) {
		t.Errorf("dropped key is still live")
	}
}

func TestScoreSnapshotKey(t *testing.T) {
	cases := []struct {
		snap models.ScoreSnapshot
		want string
	}{
		{models.ScoreSnapshot{ID: "abc", OnlineID: 5, UserID: "u"}, "abc"},
		{models.ScoreSnapshot{OnlineID: 5, UserID: "u"}, "online-5"},
		{models.ScoreSnapshot{UserID: "u"}, "user-u"},
	}
	for _, tc := range cases {
		if got := tc.snap.Key(); got != tc.want {
			t.Errorf("Key() = %q, want %q", got, tc.want)
		}
	}
}

func TestScoreProcessorKeepsHighestCombo(t *testing.T) {
	p := NewScoreProcessor()
	p.Apply(100, 0.99, 20)
	p.Apply(150, 0.98, 0)

	if p.HighestCombo.Value() != 20 || p.Combo.Value() != 0 {
		t.Fatalf("combo = %d, highest = %d", p.Combo.Value(), p.HighestCombo.Value())
	}

	p.Reset()
	if p.TotalScore.Value() != 0 || p.Accuracy.Value() != 1 || p.HighestCombo.Value() != 0 {
		t.Fatalf("Reset left values behind")
	}
}

func TestBroadcasterDropsOldestForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster[int](2)
	ch, cancel := b.Subscribe()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	if got := <-ch; got != 2 {
		t.Fatalf("expected the oldest value to be dropped, got %d", got)
	}
	if got := <-ch; got != 3 {
		t.Fatalf("expected newest value, got %d", got)
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	if b.Len() != 0 {
		t.Fatalf("subscriber not removed")
	}
	b.Publish(4)
}
