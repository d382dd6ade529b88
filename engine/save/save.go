// Package save implements the JSON save snapshot format.
package save

import (
	"encoding/json"
	"math"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// Version is the snapshot format version written by Encode.
const Version = 1

// PlayerState is the avatar part of a snapshot. Values are rounded.
type PlayerState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction string  `json:"direction"`
	Stamina   float64 `json:"stamina"`
}

// Snapshot is the complete restorable state of a session.
type Snapshot struct {
	Version         int                   `json:"version"`
	SavedAt         int64                 `json:"savedAt"` // epoch milliseconds
	WorldName       string                `json:"worldName"`
	WorldDifficulty string                `json:"worldDifficulty,omitempty"`
	MapFileName     string                `json:"mapFileName"`
	MapName         string                `json:"mapName,omitempty"`
	MapDifficulty   string                `json:"mapDifficulty,omitempty"`
	MapThreat       string                `json:"mapThreat,omitempty"`
	CharacterPath   string                `json:"characterPath"`
	CharacterName   string                `json:"characterName,omitempty"`
	Inventory       types.InventoryRecord `json:"inventory"`
	Quests          types.QuestLogRecord  `json:"quests"`
	Player          PlayerState           `json:"player"`
	Zoom            float64               `json:"zoom"`
}

// Round returns v rounded half away from zero, as stored in snapshots.
func Round(v float64) float64 {
	return math.Round(v)
}

// Encode serializes a snapshot to indented JSON.
func Encode(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses and validates a snapshot. Missing collections are
// replaced with empty ones.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errs.Malformed("snapshot", 0, "%v", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

// Validate checks the fields a restore cannot do without.
func (s *Snapshot) Validate() error {
	switch {
	case s.Version <= 0 || s.Version > Version:
		return errs.Malformed("snapshot", 0, "unsupported version %d", s.Version)
	case s.WorldName == "" || s.MapFileName == "":
		return errs.Malformed("snapshot", 0, "missing world or map")
	}
	return nil
}

// Normalize ensures maps and slices are never nil.
func (s *Snapshot) Normalize() {
	if s.Inventory.Items == nil {
		s.Inventory.Items = []types.ItemGrant{}
	}
	if s.Inventory.Equipment == nil {
		s.Inventory.Equipment = map[types.Slot]string{}
	}
	if s.Quests.Progress == nil {
		s.Quests.Progress = map[string]types.QuestProgressRecord{}
	}
	if s.Player.Direction == "" {
		s.Player.Direction = "down"
	}
}
