package mapdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/amgis/types"
)

// CoerceProperty converts a raw property value according to its declared
// type. Unknown or empty types are kept as strings.
func CoerceProperty(kind, raw string) (types.Property, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bool":
		return types.Property{Kind: types.PropBool, Bool: parseBool(raw)}, nil
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return types.Property{}, fmt.Errorf("invalid int %q", raw)
		}
		return types.Property{Kind: types.PropInt, Int: n}, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return types.Property{}, fmt.Errorf("invalid float %q", raw)
		}
		return types.Property{Kind: types.PropFloat, Float: f}, nil
	default:
		return types.Property{Kind: types.PropString, String: raw}, nil
	}
}

// parseBool accepts true/1/yes/on case-insensitively; everything else is false.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Truthy reports the boolean reading of a property and whether it has one.
// String values only count when they spell a recognized boolean word.
func Truthy(p types.Property) (value, ok bool) {
	switch p.Kind {
	case types.PropBool:
		return p.Bool, true
	case types.PropInt:
		return p.Int != 0, true
	case types.PropString:
		switch strings.ToLower(strings.TrimSpace(p.String)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	}
	return false, false
}

// NumberProp returns a numeric property as float64.
func NumberProp(props map[string]types.Property, name string) (float64, bool) {
	p, ok := props[name]
	if !ok {
		return 0, false
	}
	switch p.Kind {
	case types.PropInt:
		return float64(p.Int), true
	case types.PropFloat:
		return p.Float, true
	case types.PropString:
		f, err := strconv.ParseFloat(strings.TrimSpace(p.String), 64)
		return f, err == nil
	}
	return 0, false
}

// TilesetFor returns the tileset owning gid: the greatest FirstGID not
// exceeding gid whose range still contains it. A zero TileCount is unbounded.
func TilesetFor(gid int32, tilesets []types.Tileset) (*types.Tileset, bool) {
	var match *types.Tileset
	for i := range tilesets {
		ts := &tilesets[i]
		if gid < ts.FirstGID {
			continue
		}
		if ts.TileCount > 0 && int64(gid) >= int64(ts.FirstGID)+int64(ts.TileCount) {
			continue
		}
		if match == nil || ts.FirstGID >= match.FirstGID {
			match = ts
		}
	}
	return match, match != nil
}

// IsEmptyTile reports whether a tile value draws nothing for the map's format.
func IsEmptyTile(m *types.Map, tile int32) bool {
	if tile < 0 {
		return true
	}
	if m.Format == types.FormatTiled {
		return tile == types.EmptyTiledTile
	}
	return tile == types.EmptyLegacyTile
}

// PixelSize returns the map's size in world pixels.
func PixelSize(m *types.Map) (width, height float64) {
	if m == nil {
		return 0, 0
	}
	return float64(m.GridWidth * m.TileWidth), float64(m.GridHeight * m.TileHeight)
}
