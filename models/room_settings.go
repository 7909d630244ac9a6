// models/room_settings.go
package models

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// APIMod is a single gameplay modifier as replicated between clients.
type APIMod struct {
	Acronym  string         `json:"acronym"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Equals compares acronym and settings by value.
func (m APIMod) Equals(other APIMod) bool {
	if m.Acronym != other.Acronym {
		return false
	}
	if len(m.Settings) == 0 && len(other.Settings) == 0 {
		return true
	}
	return reflect.DeepEqual(m.Settings, other.Settings)
}

func (m APIMod) String() string {
	if len(m.Settings) == 0 {
		return m.Acronym
	}

	keys := make([]string, 0, len(m.Settings))
	for k := range m.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m.Settings[k]))
	}
	return fmt.Sprintf("%s(%s)", m.Acronym, strings.Join(parts, ","))
}

func (m APIMod) clone() APIMod {
	if m.Settings == nil {
		return APIMod{Acronym: m.Acronym}
	}
	settings := make(map[string]any, len(m.Settings))
	for k, v := range m.Settings {
		settings[k] = v
	}
	return APIMod{Acronym: m.Acronym, Settings: settings}
}

// RoomSettings is the replicated configuration of a multiplayer room.
// A value is never mutated after it has been applied; the next update supersedes it.
type RoomSettings struct {
	BeatmapID *int     `json:"beatmap_id,omitempty"`
	RulesetID *int     `json:"ruleset_id,omitempty"`
	Mods      []APIMod `json:"mods"`
}

// Equals reports whether two settings describe the same room configuration.
// Mods are compared as an ordered sequence: [DT,HD] and [HD,DT] differ.
// A nil value only equals another nil value.
func (s *RoomSettings) Equals(other *RoomSettings) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	if !intPtrEqual(s.BeatmapID, other.BeatmapID) || !intPtrEqual(s.RulesetID, other.RulesetID) {
		return false
	}
	if len(s.Mods) != len(other.Mods) {
		return false
	}
	for i := range s.Mods {
		if !s.Mods[i].Equals(other.Mods[i]) {
			return false
		}
	}
	return true
}

// String is for diagnostics only.
func (s *RoomSettings) String() string {
	if s == nil {
		return "<nil>"
	}
	mods := make([]string, len(s.Mods))
	for i, m := range s.Mods {
		mods[i] = m.String()
	}
	return fmt.Sprintf("Beatmap:%s Mods:%s Ruleset:%s",
		formatOptionalInt(s.BeatmapID), strings.Join(mods, ","), formatOptionalInt(s.RulesetID))
}

// Clone returns a deep copy.
func (s *RoomSettings) Clone() *RoomSettings {
	if s == nil {
		return nil
	}
	out := &RoomSettings{
		BeatmapID: cloneIntPtr(s.BeatmapID),
		RulesetID: cloneIntPtr(s.RulesetID),
		Mods:      make([]APIMod, len(s.Mods)),
	}
	for i, m := range s.Mods {
		out.Mods[i] = m.clone()
	}
	return out
}

// RoomSettingsRevision is the persisted log of every settings change that was broadcast.
type RoomSettingsRevision struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	RoomID    string    `json:"room_id" gorm:"not null;index"`
	Revision  uint64    `json:"revision" gorm:"not null"`
	BeatmapID *int      `json:"beatmap_id,omitempty"`
	RulesetID *int      `json:"ruleset_id,omitempty"`
	Mods      string    `json:"mods" gorm:"type:text"` // JSON-encoded []APIMod
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// RoomSettingsUpdate is the result of applying settings to a room.
type RoomSettingsUpdate struct {
	RoomID   string        `json:"room_id"`
	Revision uint64        `json:"revision"`
	Changed  bool          `json:"changed"`
	Settings *RoomSettings `json:"settings"`
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
