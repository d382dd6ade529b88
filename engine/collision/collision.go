// Package collision builds the per-tile blocking bitmap of a map and
// answers circle-vs-grid queries against it.
package collision

import (
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/nathoo/amgis/engine/mapdata"
	"github.com/nathoo/amgis/types"
)

// blockingHints are matched as case-insensitive substrings of layer names.
var blockingHints = []string{
	"collision", "collisions", "blocked", "block", "wall", "walls",
	"water", "lava", "void", "cliff", "obstacle",
}

// Grid is the blocking bitmap derived from a map.
type Grid struct {
	blocked    *bitset.BitSet
	GridWidth  int
	GridHeight int
	TileWidth  int
	TileHeight int
}

// LayerBlocks reports whether a layer participates in collision.
func LayerBlocks(l types.Layer) bool {
	for _, name := range []string{"collides", "block", "nonwalkable"} {
		if v, ok := mapdata.Truthy(l.Properties[name]); ok && v {
			return true
		}
	}
	if p, present := l.Properties["walkable"]; present {
		if v, ok := mapdata.Truthy(p); ok && !v {
			return true
		}
	}
	name := strings.ToLower(l.Name)
	for _, hint := range blockingHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// Build derives the grid from m. A cell blocks if any blocking layer has a
// non-empty tile there.
func Build(m *types.Map) *Grid {
	g := &Grid{
		GridWidth:  m.GridWidth,
		GridHeight: m.GridHeight,
		TileWidth:  m.TileWidth,
		TileHeight: m.TileHeight,
	}
	size := m.GridWidth * m.GridHeight
	if size < 0 {
		size = 0
	}
	g.blocked = bitset.New(uint(size))

	for _, layer := range m.Layers {
		if !LayerBlocks(layer) {
			continue
		}
		limit := min(len(layer.Tiles), size)
		for i := 0; i < limit; i++ {
			if !mapdata.IsEmptyTile(m, layer.Tiles[i]) {
				g.blocked.Set(uint(i))
			}
		}
	}
	return g
}

// IsBlocked reports whether a cell blocks. Cells outside the grid always block.
func (g *Grid) IsBlocked(col, row int) bool {
	if col < 0 || row < 0 || col >= g.GridWidth || row >= g.GridHeight {
		return true
	}
	return g.blocked.Test(uint(row*g.GridWidth + col))
}

// BlockedCount returns the number of blocking cells.
func (g *Grid) BlockedCount() int {
	return int(g.blocked.Count())
}

// CollidesAt samples the centre and eight points at radius-1 around it and
// reports whether any sample lies in a blocked cell.
func (g *Grid) CollidesAt(x, y, radius float64) bool {
	if g.TileWidth <= 0 || g.TileHeight <= 0 {
		return true
	}
	r := math.Max(0, radius-1)
	if r == 0 {
		return g.pointBlocked(x, y)
	}
	offsets := [9][2]float64{
		{0, 0},
		{-r, 0}, {r, 0}, {0, -r}, {0, r},
		{-r, -r}, {r, -r}, {-r, r}, {r, r},
	}
	for _, o := range offsets {
		if g.pointBlocked(x+o[0], y+o[1]) {
			return true
		}
	}
	return false
}

func (g *Grid) pointBlocked(x, y float64) bool {
	col := int(math.Floor(x / float64(g.TileWidth)))
	row := int(math.Floor(y / float64(g.TileHeight)))
	return g.IsBlocked(col, row)
}
