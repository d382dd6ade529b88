// Package npc tracks which non-player character on the current map is close
// enough to talk to.
package npc

import (
	"math"

	"github.com/nathoo/amgis/types"
)

// Defaults applied when a catalog record leaves them unset.
const (
	InteractRadius = 96.0
	MarkerRadius   = 12.0
	MarkerColor    = "#ffd166"
)

// Normalize fills in default radii and marker colour.
func Normalize(n types.NPC) types.NPC {
	if n.Radius <= 0 {
		n.Radius = InteractRadius
	}
	if n.MarkerRadius <= 0 {
		n.MarkerRadius = MarkerRadius
	}
	if n.MarkerColor == "" {
		n.MarkerColor = MarkerColor
	}
	return n
}

// ActiveFor returns the NPCs placed on the given world and map, normalized,
// in catalog order.
func ActiveFor(all []types.NPC, world, mapFile string) []types.NPC {
	var out []types.NPC
	for _, n := range all {
		if n.World == world && n.Map == mapFile {
			out = append(out, Normalize(n))
		}
	}
	return out
}

// Nearest returns the index of the closest NPC whose interaction radius
// contains (x, y), or -1. On equal distance the earlier NPC wins.
func Nearest(npcs []types.NPC, x, y float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, n := range npcs {
		radius := n.Radius
		if radius <= 0 {
			radius = InteractRadius
		}
		d := math.Hypot(n.Position.X-x, n.Position.Y-y)
		if d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Tracker holds the active NPCs of the loaded map and the one currently in range.
type Tracker struct {
	active  []types.NPC
	nearest int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{nearest: -1}
}

// Sync replaces the active set for a newly loaded map.
func (t *Tracker) Sync(all []types.NPC, world, mapFile string) {
	t.active = ActiveFor(all, world, mapFile)
	t.nearest = -1
}

// Update recomputes the NPC in range of the player.
func (t *Tracker) Update(x, y float64) {
	t.nearest = Nearest(t.active, x, y)
}

// Clear forgets the NPC in range without touching the active set.
func (t *Tracker) Clear() {
	t.nearest = -1
}

// Active returns the NPCs on the current map.
func (t *Tracker) Active() []types.NPC {
	return t.active
}

// Nearby returns the NPC in interaction range, if any.
func (t *Tracker) Nearby() (types.NPC, bool) {
	if t.nearest < 0 || t.nearest >= len(t.active) {
		return types.NPC{}, false
	}
	return t.active[t.nearest], true
}
