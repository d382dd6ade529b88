// Package loader reads the static catalogs (enemies, NPCs, items, quests and
// characters) from a GameData tree. Each catalog may be authored as JSON or
// as a sandboxed Lua script. Problems never abort a load: the affected
// catalog degrades to what could be read and a warning is recorded.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/amgis/catalog"
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/mapdata"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

// Kind names one catalog.
type Kind string

const (
	KindEnemy     Kind = "enemy"
	KindNPC       Kind = "npc"
	KindItem      Kind = "item"
	KindQuest     Kind = "quest"
	KindCharacter Kind = "character"
)

// Kinds lists the catalogs in load order.
var Kinds = []Kind{KindEnemy, KindNPC, KindItem, KindQuest, KindCharacter}

// stems maps a kind to its file path without extension.
var stems = map[Kind]string{
	KindEnemy:     "Enemies/enemies",
	KindNPC:       "NPCs/npcs",
	KindItem:      "Items/items",
	KindQuest:     "Quests/quests",
	KindCharacter: "Characters/characters",
}

// Report lists what went wrong while loading.
type Report struct {
	Warnings []string
}

func (r *Report) warn(kind Kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger.Log.WithField("catalog", kind).Warn(msg)
}

// Load reads the catalogs under dir. It only fails when dir itself cannot
// be read.
func Load(dir string) (*catalog.Catalog, *Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, errs.IO("reading game data "+dir, err)
	}
	if !info.IsDir() {
		return nil, nil, errs.IO("reading game data", fmt.Errorf("%s is not a directory", dir))
	}
	cat, rep := LoadFS(os.DirFS(dir))
	return cat, rep, nil
}

// LoadFS reads the catalogs from fsys and validates cross references.
func LoadFS(fsys fs.FS) (*catalog.Catalog, *Report) {
	rep := &Report{}
	var (
		enemies    []types.Enemy
		npcs       []types.NPC
		items      []types.Item
		quests     []types.Quest
		characters []types.Character
	)
	decodeKind(fsys, KindEnemy, rep, &enemies)
	decodeKind(fsys, KindNPC, rep, &npcs)
	decodeKind(fsys, KindItem, rep, &items)
	decodeKind(fsys, KindQuest, rep, &quests)
	if !decodeKind(fsys, KindCharacter, rep, &characters) {
		characters = scanCharacters(fsys, rep)
	}

	enemies = keep(enemies, func(e types.Enemy) string { return e.ID }, KindEnemy, rep)
	npcs = keep(npcs, func(n types.NPC) string { return n.ID }, KindNPC, rep)
	items = keep(items, func(i types.Item) string { return i.ID }, KindItem, rep)
	quests = keep(quests, func(q types.Quest) string { return q.ID }, KindQuest, rep)
	characters = keep(characters, func(c types.Character) string { return c.File }, KindCharacter, rep)

	cat := catalog.New(enemies, npcs, items, quests, characters)
	for _, w := range Validate(cat) {
		rep.warn("references", "%s", w)
	}
	logger.Log.WithFields(logrus.Fields{
		"enemies":    len(enemies),
		"npcs":       len(npcs),
		"items":      len(items),
		"quests":     len(quests),
		"characters": len(characters),
		"warnings":   len(rep.Warnings),
	}).Info("catalogs loaded")
	return cat, rep
}

// decodeKind fills out from the JSON or Lua file of kind. It reports
// whether a file was found, even if it could not be decoded.
func decodeKind(fsys fs.FS, kind Kind, rep *Report, out any) bool {
	stem := stems[kind]
	for _, ext := range []string{".json", ".lua"} {
		name := stem + ext
		raw, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			rep.warn(kind, "reading %s: %v", name, err)
			return true
		}
		if ext == ".lua" {
			raw, err = runScript(name, raw, kind)
			if err != nil {
				rep.warn(kind, "%v", err)
				return true
			}
		}
		if err := decodeRecords(raw, kind, out); err != nil {
			rep.warn(kind, "%s: %v", name, err)
		}
		return true
	}
	logger.Log.WithField("catalog", kind).Debug("no catalog file, using an empty catalog")
	return false
}

// decodeRecords accepts either a bare array or an object holding the array
// under the plural kind name, e.g. {"enemies": [...]}.
func decodeRecords(raw []byte, kind Kind, out any) error {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return err
		}
		inner, ok := wrapper[path.Base(stems[kind])]
		if !ok {
			return fmt.Errorf("object has no %q array", path.Base(stems[kind]))
		}
		raw = inner
	}
	return json.Unmarshal(raw, out)
}

// keep drops records without an id and later duplicates.
func keep[T any](records []T, id func(T) string, kind Kind, rep *Report) []T {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for i, r := range records {
		k := id(r)
		switch {
		case k == "":
			rep.warn(kind, "record %d has no id, skipped", i)
			continue
		case seen[k]:
			rep.warn(kind, "duplicate id %q, keeping the first", k)
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// scanCharacters derives characters from sprite sheets laid out as
// Characters/<Gender>/<name>.png when no characters file exists.
func scanCharacters(fsys fs.FS, rep *Report) []types.Character {
	dirs, err := fs.ReadDir(fsys, "Characters")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			rep.warn(KindCharacter, "scanning Characters: %v", err)
		}
		return nil
	}
	var out []types.Character
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		sprites, err := fs.ReadDir(fsys, path.Join("Characters", d.Name()))
		if err != nil {
			rep.warn(KindCharacter, "scanning %s: %v", d.Name(), err)
			continue
		}
		for _, s := range sprites {
			if s.IsDir() || !strings.EqualFold(path.Ext(s.Name()), ".png") {
				continue
			}
			out = append(out, types.Character{
				Name:   mapdata.DisplayName(s.Name()),
				Gender: d.Name(),
				File:   path.Join("Characters", d.Name(), s.Name()),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
