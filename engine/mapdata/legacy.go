package mapdata

import (
	"path"
	"strconv"
	"strings"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// legacyFields is id|name|tileWidth|tileHeight|gridWidth|gridHeight|csvTiles.
const legacyFields = 7

// ParseLegacy parses the pipe grammar: ';'-joined layer chunks. The sprite
// sheet is implied by the world name.
func ParseLegacy(world, file string, raw []byte) (*types.Map, error) {
	text := string(raw)
	m := &types.Map{
		Format:      types.FormatLegacy,
		World:       world,
		FileName:    file,
		SpriteSheet: path.Join(world, world+".png"),
	}

	offset := 0
	index := 0
	for _, chunk := range strings.Split(text, ";") {
		start := offset
		offset += len(chunk) + 1

		trimmed := strings.TrimSpace(chunk)
		if trimmed == "" {
			continue
		}
		lead := len(chunk) - len(strings.TrimLeft(chunk, " \t\r\n"))
		line := 1 + strings.Count(text[:start+lead], "\n")

		layer, tw, th, err := parseLegacyLayer(trimmed, index, file, line)
		if err != nil {
			return nil, err
		}
		if index == 0 {
			m.TileWidth, m.TileHeight = tw, th
			m.GridWidth, m.GridHeight = layer.GridWidth, layer.GridHeight
		}
		m.Layers = append(m.Layers, layer)
		index++
	}

	if len(m.Layers) == 0 {
		return nil, errs.Malformed(file, 0, "no layers")
	}
	return m, nil
}

func parseLegacyLayer(chunk string, index int, file string, line int) (types.Layer, int, int, error) {
	parts := strings.Split(chunk, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < legacyFields {
		return types.Layer{}, 0, 0, errs.Malformed(file, line, "layer %d is malformed", index)
	}

	var dims [4]int
	for i := range dims {
		n, err := strconv.Atoi(parts[2+i])
		if err != nil || n <= 0 {
			return types.Layer{}, 0, 0, errs.Malformed(file, line, "layer %d has invalid dimension %q", index, parts[2+i])
		}
		dims[i] = n
	}
	tileWidth, tileHeight, gridWidth, gridHeight := dims[0], dims[1], dims[2], dims[3]

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		id = index
	}
	name := parts[1]
	if name == "" {
		name = "layer-" + strconv.Itoa(index)
	}

	// The tile payload is the last field; a stray '|' inside it is kept.
	payload := strings.Join(parts[legacyFields-1:], "|")
	expected := gridWidth * gridHeight
	tiles := make([]int32, 0, expected)
	for _, tok := range strings.Split(payload, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(tiles) == expected {
			break
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			n = int64(types.EmptyLegacyTile)
		}
		tiles = append(tiles, int32(n))
	}
	if len(tiles) < expected {
		return types.Layer{}, 0, 0, errs.Malformed(file, line, "layer %d is missing tile data: %d of %d tiles", index, len(tiles), expected)
	}

	return types.Layer{
		ID:         id,
		Name:       name,
		GridWidth:  gridWidth,
		GridHeight: gridHeight,
		Tiles:      tiles,
		Properties: map[string]types.Property{},
	}, tileWidth, tileHeight, nil
}
