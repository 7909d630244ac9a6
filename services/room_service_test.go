package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"room-leaderboard-service/models"
)

type fakeSettingsStore struct {
	revisions []*models.RoomSettingsRevision
	err       error
}

func (f *fakeSettingsStore) SaveRevision(_ context.Context, rev *models.RoomSettingsRevision) error {
	if f.err != nil {
		return f.err
	}
	f.revisions = append(f.revisions, rev)
	return nil
}

func roomSettings(beatmap int, mods ...string) *models.RoomSettings {
	s := &models.RoomSettings{BeatmapID: &beatmap, Mods: []models.APIMod{}}
	for _, m := range mods {
		s.Mods = append(s.Mods, models.APIMod{Acronym: m})
	}
	return s
}

func TestRoomServiceBroadcastsOnlyChanges(t *testing.T) {
	store := &fakeSettingsStore{}
	svc := NewRoomService(store)
	roomID := svc.CreateRoom()
	updates, cancel, err := svc.Subscribe(roomID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	first, err := svc.Apply(ctx, roomID, roomSettings(1234, "DT", "HD"))
	if err != nil || !first.Changed || first.Revision != 1 {
		t.Fatalf("first apply = %+v, %v", first, err)
	}

	same, err := svc.Apply(ctx, roomID, roomSettings(1234, "DT", "HD"))
	if err != nil || same.Changed || same.Revision != 1 {
		t.Fatalf("equal settings should not be broadcast: %+v, %v", same, err)
	}

	reordered, err := svc.Apply(ctx, roomID, roomSettings(1234, "HD", "DT"))
	if err != nil || !reordered.Changed || reordered.Revision != 2 {
		t.Fatalf("reordered mods must be broadcast: %+v, %v", reordered, err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(updates))
	}
	if len(store.revisions) != 2 {
		t.Fatalf("expected 2 persisted revisions, got %d", len(store.revisions))
	}

	var mods []models.APIMod
	if err := json.Unmarshal([]byte(store.revisions[1].Mods), &mods); err != nil {
		t.Fatalf("stored mods are not JSON: %v", err)
	}
	if len(mods) != 2 || mods[0].Acronym != "HD" {
		t.Fatalf("stored mods lost their order: %+v", mods)
	}

	if id, ok := svc.BeatmapID(roomID); !ok || id != 1234 {
		t.Fatalf("BeatmapID = %d, %t", id, ok)
	}
}

func TestRoomServiceErrors(t *testing.T) {
	svc := NewRoomService(nil)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, "missing", roomSettings(1)); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := svc.Current("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	roomID := svc.CreateRoom()
	if _, err := svc.Apply(ctx, roomID, nil); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if _, ok := svc.BeatmapID(roomID); ok {
		t.Fatalf("new room should have no beatmap")
	}
}

func TestRoomServiceStoreFailureKeepsCurrent(t *testing.T) {
	store := &fakeSettingsStore{err: errors.New("db down")}
	svc := NewRoomService(store)
	roomID := svc.CreateRoom()

	if _, err := svc.Apply(context.Background(), roomID, roomSettings(5)); err == nil {
		t.Fatalf("expected an error when persisting fails")
	}
	current, err := svc.Current(roomID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current.Revision != 0 || current.Settings.BeatmapID != nil {
		t.Fatalf("failed apply changed the room: %+v", current)
	}
}

func TestRoomServiceCurrentIsACopy(t *testing.T) {
	svc := NewRoomService(nil)
	roomID := svc.CreateRoom()
	input := roomSettings(10, "HD")
	if _, err := svc.Apply(context.Background(), roomID, input); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	input.Mods[0].Acronym = "DT"
	current, _ := svc.Current(roomID)
	current.Settings.Mods = append(current.Settings.Mods, models.APIMod{Acronym: "FL"})

	again, _ := svc.Current(roomID)
	if len(again.Settings.Mods) != 1 || again.Settings.Mods[0].Acronym != "HD" {
		t.Fatalf("room settings were mutated from outside: %s", again.Settings)
	}
}
