package catalog

import (
	"testing"

	"github.com/nathoo/amgis/types"
)

func TestLookups(t *testing.T) {
	c := New(
		[]types.Enemy{{ID: "wolf", Name: "Wolf"}, {ID: "wolf", Name: "Second Wolf"}},
		[]types.NPC{{ID: "smith"}},
		[]types.Item{{ID: "sword"}, {Name: "no id"}},
		[]types.Quest{{ID: "ferry"}},
		[]types.Character{{Name: "Ash", File: "Characters/ash.png"}},
	)
	if e, ok := c.Enemy("wolf"); !ok || e.Name != "Wolf" {
		t.Errorf("duplicate ids should keep the first record, got %+v", e)
	}
	if _, ok := c.NPC("smith"); !ok {
		t.Error("npc lookup failed")
	}
	if _, ok := c.Item(""); ok {
		t.Error("empty id should not resolve")
	}
	if _, ok := c.Quest("ferry"); !ok {
		t.Error("quest lookup failed")
	}
	if ch, ok := c.Character("Characters/ash.png"); !ok || ch.Name != "Ash" {
		t.Error("characters are keyed by file path")
	}
	if len(c.AllItems()) != 2 {
		t.Error("AllItems should return the full catalog")
	}
}
