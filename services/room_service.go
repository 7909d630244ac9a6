package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"room-leaderboard-service/models"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidSettings = errors.New("room settings are required")
)

// RoomSettingsStore persists every broadcast settings revision.
type RoomSettingsStore interface {
	SaveRevision(ctx context.Context, rev *models.RoomSettingsRevision) error
}

type roomState struct {
	current  *models.RoomSettings
	revision uint64
	updates  *Broadcaster[models.RoomSettingsUpdate]
}

// RoomService owns the authoritative settings of each room and decides, via
// RoomSettings.Equals, whether an incoming value has to be broadcast.
type RoomService struct {
	mu    sync.Mutex
	rooms map[string]*roomState
	store RoomSettingsStore
}

// NewRoomService accepts a nil store for rooms that are not persisted.
func NewRoomService(store RoomSettingsStore) *RoomService {
	return &RoomService{rooms: make(map[string]*roomState), store: store}
}

func (s *RoomService) CreateRoom() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.rooms[id] = &roomState{
		current: &models.RoomSettings{Mods: []models.APIMod{}},
		updates: NewBroadcaster[models.RoomSettingsUpdate](8),
	}
	s.mu.Unlock()
	log.Printf("✅ [RoomSync] created room %s", id)
	return id
}

// Current returns a copy of the room's settings and their revision.
func (s *RoomService) Current(roomID string) (models.RoomSettingsUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return models.RoomSettingsUpdate{}, ErrRoomNotFound
	}
	return models.RoomSettingsUpdate{
		RoomID:   roomID,
		Revision: room.revision,
		Settings: room.current.Clone(),
	}, nil
}

// Apply replaces the room's settings if next differs from the current value and
// broadcasts the change. An equal value is swallowed without a broadcast.
func (s *RoomService) Apply(ctx context.Context, roomID string, next *models.RoomSettings) (models.RoomSettingsUpdate, error) {
	if next == nil {
		return models.RoomSettingsUpdate{}, ErrInvalidSettings
	}
	if next.Mods == nil {
		next = next.Clone()
		next.Mods = []models.APIMod{}
	}

	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return models.RoomSettingsUpdate{}, ErrRoomNotFound
	}

	if room.current.Equals(next) {
		update := models.RoomSettingsUpdate{RoomID: roomID, Revision: room.revision, Settings: room.current.Clone()}
		s.mu.Unlock()
		log.Printf("[RoomSync] room %s: settings unchanged (%s), not broadcasting", roomID, next)
		return update, nil
	}

	rev, err := newRevision(roomID, room.revision+1, next)
	if err != nil {
		s.mu.Unlock()
		return models.RoomSettingsUpdate{}, err
	}
	if s.store != nil {
		if err := s.store.SaveRevision(ctx, rev); err != nil {
			s.mu.Unlock()
			return models.RoomSettingsUpdate{}, fmt.Errorf("failed to persist settings for room %s: %w", roomID, err)
		}
	}

	room.current = next.Clone()
	room.revision++
	update := models.RoomSettingsUpdate{RoomID: roomID, Revision: room.revision, Changed: true, Settings: room.current.Clone()}
	updates := room.updates
	s.mu.Unlock()

	updates.Publish(update)
	log.Printf("📣 [RoomSync] room %s: revision %d %s", roomID, update.Revision, update.Settings)
	return update, nil
}

// Subscribe streams the room's future settings changes.
func (s *RoomService) Subscribe(roomID string) (<-chan models.RoomSettingsUpdate, func(), error) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	ch, cancel := room.updates.Subscribe()
	return ch, cancel, nil
}

// BeatmapID returns the beatmap currently selected in the room, if any.
func (s *RoomService) BeatmapID(roomID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.current.BeatmapID == nil {
		return 0, false
	}
	return *room.current.BeatmapID, true
}

func newRevision(roomID string, revision uint64, settings *models.RoomSettings) (*models.RoomSettingsRevision, error) {
	mods, err := json.Marshal(settings.Mods)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mods: %w", err)
	}
	c := settings.Clone()
	return &models.RoomSettingsRevision{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Revision:  revision,
		BeatmapID: c.BeatmapID,
		RulesetID: c.RulesetID,
		Mods:      string(mods),
	}, nil
}

// GormRoomSettingsStore writes revisions to postgres.
type GormRoomSettingsStore struct {
	DB *gorm.DB
}

func NewGormRoomSettingsStore(db *gorm.DB) *GormRoomSettingsStore {
	return &GormRoomSettingsStore{DB: db}
}

func (s *GormRoomSettingsStore) SaveRevision(ctx context.Context, rev *models.RoomSettingsRevision) error {
	return s.DB.WithContext(ctx).Create(rev).Error
}
