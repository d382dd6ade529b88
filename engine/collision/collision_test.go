package collision

import (
	"testing"

	"github.com/nathoo/amgis/types"
)

// testMap builds a 4x3 legacy map with 16px tiles and a wall at (2,1).
func testMap() *types.Map {
	ground := make([]int32, 12)
	walls := make([]int32, 12)
	for i := range walls {
		walls[i] = types.EmptyLegacyTile
	}
	walls[1*4+2] = 7
	return &types.Map{
		Format:     types.FormatLegacy,
		TileWidth:  16,
		TileHeight: 16,
		GridWidth:  4,
		GridHeight: 3,
		Layers: []types.Layer{
			{Name: "ground", GridWidth: 4, GridHeight: 3, Tiles: ground},
			{Name: "Castle Walls", GridWidth: 4, GridHeight: 3, Tiles: walls},
		},
	}
}

func TestLayerBlocks(t *testing.T) {
	tests := []struct {
		name  string
		layer types.Layer
		want  bool
	}{
		{"ground", types.Layer{Name: "ground"}, false},
		{"keyword", types.Layer{Name: "DeepWater"}, true},
		{"cliff edge", types.Layer{Name: "cliff-edge"}, true},
		{"collides prop", types.Layer{Name: "deco", Properties: map[string]types.Property{
			"collides": {Kind: types.PropBool, Bool: true},
		}}, true},
		{"nonwalkable string", types.Layer{Name: "deco", Properties: map[string]types.Property{
			"nonwalkable": {Kind: types.PropString, String: "yes"},
		}}, true},
		{"walkable false", types.Layer{Name: "deco", Properties: map[string]types.Property{
			"walkable": {Kind: types.PropBool, Bool: false},
		}}, true},
		{"walkable true", types.Layer{Name: "deco", Properties: map[string]types.Property{
			"walkable": {Kind: types.PropBool, Bool: true},
		}}, false},
		{"block false", types.Layer{Name: "deco", Properties: map[string]types.Property{
			"block": {Kind: types.PropBool, Bool: false},
		}}, false},
	}
	for _, tt := range tests {
		if got := LayerBlocks(tt.layer); got != tt.want {
			t.Errorf("%s: LayerBlocks = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	g := Build(testMap())
	if g.BlockedCount() != 1 {
		t.Fatalf("expected 1 blocked cell, got %d", g.BlockedCount())
	}
	if !g.IsBlocked(2, 1) {
		t.Error("expected (2,1) blocked")
	}
	if g.IsBlocked(0, 0) || g.IsBlocked(3, 2) {
		t.Error("ground cells should not block")
	}
}

func TestBuild_TiledEmptySentinel(t *testing.T) {
	m := testMap()
	m.Format = types.FormatTiled
	// -1 was the legacy sentinel; in tiled maps only 0 is empty.
	m.Layers[1].Tiles = make([]int32, 12)
	m.Layers[1].Tiles[0] = 3
	g := Build(m)
	if g.BlockedCount() != 1 || !g.IsBlocked(0, 0) {
		t.Errorf("expected only (0,0) blocked, got %d cells", g.BlockedCount())
	}
}

func TestIsBlocked_OutsideBounds(t *testing.T) {
	grids := []*Grid{Build(testMap()), Build(&types.Map{TileWidth: 8, TileHeight: 8})}
	for _, g := range grids {
		for _, c := range [][2]int{{-1, 0}, {0, -1}, {g.GridWidth, 0}, {0, g.GridHeight}, {-5, -5}, {100, 100}} {
			if !g.IsBlocked(c[0], c[1]) {
				t.Errorf("%dx%d grid: (%d,%d) outside bounds should block", g.GridWidth, g.GridHeight, c[0], c[1])
			}
		}
	}
}

func TestCollidesAt(t *testing.T) {
	g := Build(testMap())
	tests := []struct {
		name   string
		x, y   float64
		radius float64
		want   bool
	}{
		{"open centre", 8, 8, 6, false},
		{"inside wall", 40, 24, 0, true},
		{"edge sample reaches wall", 28, 24, 6, true},
		{"just clear of wall", 24, 24, 6, false},
		{"radius one is centre only", 31.5, 24, 1, false},
		{"outside map", -2, 8, 0, true},
		{"sample crosses map edge", 4, 8, 6, true},
	}
	for _, tt := range tests {
		if got := g.CollidesAt(tt.x, tt.y, tt.radius); got != tt.want {
			t.Errorf("%s: CollidesAt(%v,%v,%v) = %v, want %v", tt.name, tt.x, tt.y, tt.radius, got, tt.want)
		}
	}
}
