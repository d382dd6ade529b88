// Package storage persists the settings blob and the save slots in a single
// bbolt file.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/save"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

var (
	settingsBucket = []byte("settings")
	savesBucket    = []byte("saves")
	settingsKey    = []byte("blob")
)

// Slot is a fixed save slot.
type Slot struct {
	ID    string
	Label string
}

// Slots lists the save slots in display order.
var Slots = []Slot{
	{ID: "slot-1", Label: "Slot I"},
	{ID: "slot-2", Label: "Slot II"},
	{ID: "slot-3", Label: "Slot III"},
}

// SlotByID finds a slot.
func SlotByID(id string) (Slot, bool) {
	for _, s := range Slots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// Settings is the decoded settings blob.
type Settings struct {
	Zoom              float64                `json:"zoom"`
	AudioMuted        bool                   `json:"audioMuted"`
	LastCharacterPath string                 `json:"lastCharacterPath"`
	Inventory         *types.InventoryRecord `json:"inventory,omitempty"`
	Quests            *types.QuestLogRecord  `json:"quests,omitempty"`
}

// DefaultSettings are merged under whatever is stored.
func DefaultSettings() Settings {
	return Settings{Zoom: 1}
}

// SlotInfo summarizes one slot for a load menu.
type SlotInfo struct {
	Slot
	Exists        bool
	SavedAt       time.Time
	WorldName     string
	MapName       string
	CharacterName string
}

// Store is a bbolt-backed settings and save store.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errs.IO("opening store "+path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{settingsBucket, savesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errs.IO("initializing store", err)
	}
	return &Store{db: db}, nil
}

// Close releases the file.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSettings returns the stored settings merged over the defaults. A
// corrupt blob is logged and ignored.
func (s *Store) GetSettings() (Settings, error) {
	out := DefaultSettings()
	raw, err := s.rawSettings()
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Log.WithError(err).Warn("stored settings are corrupt, using defaults")
		return DefaultSettings(), nil
	}
	return out, nil
}

// SaveSettings shallow-merges patch into the stored blob. Keys not in patch
// are kept.
func (s *Store) SaveSettings(patch map[string]any) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(settingsBucket)
		current := map[string]json.RawMessage{}
		if raw := b.Get(settingsKey); len(raw) > 0 {
			if err := json.Unmarshal(raw, &current); err != nil {
				logger.Log.WithError(err).Warn("replacing corrupt settings blob")
				current = map[string]json.RawMessage{}
			}
		}
		for k, v := range patch {
			enc, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding setting %q: %w", k, err)
			}
			current[k] = enc
		}
		merged, err := json.Marshal(current)
		if err != nil {
			return err
		}
		return b.Put(settingsKey, merged)
	})
	if err != nil {
		return errs.IO("saving settings", err)
	}
	return nil
}

func (s *Store) rawSettings() ([]byte, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(settingsBucket).Get(settingsKey); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errs.IO("reading settings", err)
	}
	return raw, nil
}

// SaveSlot writes snap into slot id.
func (s *Store) SaveSlot(id string, snap *save.Snapshot) error {
	if _, ok := SlotByID(id); !ok {
		return errs.NotFound("save slot", id)
	}
	data, err := save.Encode(snap)
	if err != nil {
		return errs.IO("encoding snapshot", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(savesBucket).Put([]byte(id), data)
	})
	if err != nil {
		return errs.IO("writing "+id, err)
	}
	logger.Log.WithFields(logrus.Fields{
		"slot":  id,
		"world": snap.WorldName,
		"map":   snap.MapFileName,
	}).Info("game saved")
	return nil
}

// LoadSlot reads the snapshot in slot id.
func (s *Store) LoadSlot(id string) (*save.Snapshot, error) {
	if _, ok := SlotByID(id); !ok {
		return nil, errs.NotFound("save slot", id)
	}
	raw, err := s.slotData(id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.NotFound("save", id)
	}
	return save.Decode(raw)
}

// DeleteSave empties slot id.
func (s *Store) DeleteSave(id string) error {
	if _, ok := SlotByID(id); !ok {
		return errs.NotFound("save slot", id)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(savesBucket).Delete([]byte(id))
	})
	if err != nil {
		return errs.IO("deleting "+id, err)
	}
	return nil
}

// ListSaves describes every slot. Unreadable saves are listed as empty.
func (s *Store) ListSaves() ([]SlotInfo, error) {
	out := make([]SlotInfo, 0, len(Slots))
	for _, slot := range Slots {
		info := SlotInfo{Slot: slot}
		snap, err := s.LoadSlot(slot.ID)
		switch {
		case err == nil:
			info.Exists = true
			info.SavedAt = time.UnixMilli(snap.SavedAt)
			info.WorldName = snap.WorldName
			info.MapName = snap.MapName
			info.CharacterName = snap.CharacterName
		case errors.Is(err, errs.ErrNotFound):
		case errors.Is(err, errs.ErrMalformedData):
			logger.Log.WithError(err).WithField("slot", slot.ID).Warn("unreadable save")
		default:
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Latest returns the most recently saved snapshot and its slot id.
func (s *Store) Latest() (*save.Snapshot, string, error) {
	var (
		best   *save.Snapshot
		bestID string
	)
	for _, slot := range Slots {
		snap, err := s.LoadSlot(slot.ID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrMalformedData) {
				continue
			}
			return nil, "", err
		}
		if best == nil || snap.SavedAt > best.SavedAt {
			best, bestID = snap, slot.ID
		}
	}
	if best == nil {
		return nil, "", errs.NotFound("save", "any slot")
	}
	return best, bestID, nil
}

func (s *Store) slotData(id string) ([]byte, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(savesBucket).Get([]byte(id)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errs.IO("reading "+id, err)
	}
	return raw, nil
}
