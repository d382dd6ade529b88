package save

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Version:       Version,
		SavedAt:       1700000000000,
		WorldName:     "Vale",
		MapFileName:   "town.tmx",
		MapName:       "Town",
		CharacterPath: "Characters/ash.png",
		CharacterName: "Ash",
		Inventory: types.InventoryRecord{
			Items:     []types.ItemGrant{{ID: "sword", Quantity: 1}},
			Equipment: map[types.Slot]string{types.SlotWeapon: "sword"},
		},
		Quests: types.QuestLogRecord{
			Progress: map[string]types.QuestProgressRecord{
				"ferry": {Status: types.QuestInProgress, CompletedObjectives: []string{"talk"}},
			},
			TrackedQuestID: "ferry",
		},
		Player: PlayerState{X: 120, Y: 64, Direction: "left", Stamina: 73},
		Zoom:   1.5,
	}
}

func TestRoundTrip(t *testing.T) {
	want := testSnapshot()
	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestEncode_FieldNames(t *testing.T) {
	data, _ := Encode(testSnapshot())
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"version", "savedAt", "worldName", "mapFileName", "characterPath", "inventory", "quests", "player", "zoom"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	inv := raw["inventory"].(map[string]any)
	if _, ok := inv["equipment"].(map[string]any)["weapon"]; !ok {
		t.Error("equipment should be keyed by slot name")
	}
}

func TestDecode_NilSafe(t *testing.T) {
	s, err := Decode([]byte(`{"version":1,"worldName":"Vale","mapFileName":"a.map"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if s.Inventory.Items == nil || s.Inventory.Equipment == nil || s.Quests.Progress == nil {
		t.Error("collections should never be nil after decode")
	}
	if s.Player.Direction != "down" {
		t.Errorf("direction default = %q", s.Player.Direction)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing world", `{"version":1,"mapFileName":"a.map"}`},
		{"future version", `{"version":9,"worldName":"Vale","mapFileName":"a.map"}`},
		{"no version", `{"worldName":"Vale","mapFileName":"a.map"}`},
	}
	for _, tt := range tests {
		if _, err := Decode([]byte(tt.data)); !errors.Is(err, errs.ErrMalformedData) {
			t.Errorf("%s: expected malformed data error, got %v", tt.name, err)
		}
	}
}
