package mapdata

import (
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// Placeholders for optional list fields.
const (
	UnknownDifficulty = "Unknown"
	UnknownBiome      = "Uncharted"
	UnknownThreat     = "Unassessed"
	NoIntel           = "No intel available."
	DefaultWeather    = "Clear"
)

// ParseWorldList parses `id|name[|difficulty|biome|summary]` lines.
// Blank lines are ignored; an empty list is malformed.
func ParseWorldList(file string, raw []byte) ([]types.World, error) {
	var worlds []types.World
	for i, line := range splitLines(raw) {
		lineNo := i + 1
		if line == "" {
			continue
		}
		parts := splitFields(line)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, errs.Malformed(file, lineNo, "world entry needs id and name")
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errs.Malformed(file, lineNo, "invalid world id %q", parts[0])
		}
		worlds = append(worlds, types.World{
			ID:         id,
			Name:       parts[1],
			Difficulty: field(parts, 2, UnknownDifficulty),
			Biome:      field(parts, 3, UnknownBiome),
			Summary:    field(parts, 4, NoIntel),
		})
	}
	if len(worlds) == 0 {
		return nil, errs.Malformed(file, 0, "no worlds defined")
	}
	return worlds, nil
}

// ParseMapList parses
// `id|fileName|width|height[|spawnX|spawnY|difficulty|threat|summary|weather|recommendation]` lines.
func ParseMapList(file string, raw []byte) ([]types.MapMeta, error) {
	var maps []types.MapMeta
	for i, line := range splitLines(raw) {
		lineNo := i + 1
		if line == "" {
			continue
		}
		parts := splitFields(line)
		if len(parts) < 4 || parts[1] == "" {
			return nil, errs.Malformed(file, lineNo, "map entry needs id, file name, width and height")
		}
		var nums [3]int
		for i, idx := range []int{0, 2, 3} {
			n, err := strconv.Atoi(parts[idx])
			if err != nil {
				return nil, errs.Malformed(file, lineNo, "invalid numeric value %q in map entry", parts[idx])
			}
			nums[i] = n
		}

		meta := types.MapMeta{
			ID:             nums[0],
			FileName:       parts[1],
			Name:           DisplayName(parts[1]),
			Width:          nums[1],
			Height:         nums[2],
			Difficulty:     field(parts, 6, UnknownDifficulty),
			Threat:         field(parts, 7, UnknownThreat),
			Summary:        field(parts, 8, NoIntel),
			Weather:        field(parts, 9, DefaultWeather),
			Recommendation: field(parts, 10, ""),
		}
		if sx, sy := field(parts, 4, ""), field(parts, 5, ""); sx != "" || sy != "" {
			x, errX := strconv.ParseFloat(sx, 64)
			y, errY := strconv.ParseFloat(sy, 64)
			if errX != nil || errY != nil {
				return nil, errs.Malformed(file, lineNo, "invalid spawn %q,%q", sx, sy)
			}
			meta.Spawn = &types.Point{X: x, Y: y}
		}
		maps = append(maps, meta)
	}
	if len(maps) == 0 {
		return nil, errs.Malformed(file, 0, "no maps defined")
	}
	return maps, nil
}

// DisplayName derives a human-readable name from a map file name.
// "Aethelgard_map_1.map" -> "Aethelgard Map 1".
func DisplayName(fileName string) string {
	stem := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return cases.Title(language.English).String(strings.Join(strings.Fields(stem), " "))
}

// splitLines returns trimmed lines; index i is line i+1.
func splitLines(raw []byte) []string {
	lines := strings.Split(string(raw), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

func splitFields(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func field(parts []string, i int, def string) string {
	if i < len(parts) && parts[i] != "" {
		return parts[i]
	}
	return def
}
