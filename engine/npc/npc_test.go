package npc

import (
	"testing"

	"github.com/nathoo/amgis/types"
)

func catalog() []types.NPC {
	return []types.NPC{
		{ID: "smith", World: "Vale", Map: "town.tmx", Position: types.Point{X: 100, Y: 100}},
		{ID: "guard", World: "Vale", Map: "town.tmx", Position: types.Point{X: 300, Y: 100}, Radius: 40},
		{ID: "hermit", World: "Vale", Map: "woods.map", Position: types.Point{X: 100, Y: 100}},
		{ID: "twin", World: "Vale", Map: "town.tmx", Position: types.Point{X: 100, Y: 100}},
	}
}

func TestActiveFor(t *testing.T) {
	active := ActiveFor(catalog(), "Vale", "town.tmx")
	if len(active) != 3 {
		t.Fatalf("expected 3 active NPCs, got %d", len(active))
	}
	if active[0].Radius != InteractRadius || active[0].MarkerRadius != MarkerRadius {
		t.Errorf("defaults not applied: %+v", active[0])
	}
	if active[1].Radius != 40 {
		t.Errorf("explicit radius overwritten: %v", active[1].Radius)
	}
	if len(ActiveFor(catalog(), "Other", "town.tmx")) != 0 {
		t.Error("world filter not applied")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Sync(catalog(), "Vale", "town.tmx")

	tests := []struct {
		name   string
		x, y   float64
		wantID string
	}{
		{"on top of tie goes to first", 100, 100, "smith"},
		{"edge of default radius", 196, 100, "smith"},
		{"out of default radius", 197, 100, ""},
		{"guard small radius", 270, 100, "guard"},
		{"outside guard radius", 250, 100, ""},
	}
	for _, tt := range tests {
		tr.Update(tt.x, tt.y)
		n, ok := tr.Nearby()
		got := ""
		if ok {
			got = n.ID
		}
		if got != tt.wantID {
			t.Errorf("%s: nearby = %q, want %q", tt.name, got, tt.wantID)
		}
	}

	tr.Update(100, 100)
	tr.Sync(catalog(), "Vale", "woods.map")
	if _, ok := tr.Nearby(); ok {
		t.Error("sync should reset the tracked NPC")
	}
}
