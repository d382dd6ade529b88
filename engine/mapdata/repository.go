// Package mapdata parses world lists, map lists, and the two map grammars
// into the canonical types.Map. Parsers are pure functions of their input.
package mapdata

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// WorldListFile is the world list at the root of the worlds directory.
const WorldListFile = "Worlds.wrld"

// Parse dispatches on the file extension: .tmx is the tileset-indexed
// grammar, anything else is the legacy pipe grammar.
func Parse(world, file string, raw []byte, read ReadFunc) (*types.Map, error) {
	if strings.EqualFold(path.Ext(file), ".tmx") {
		return ParseTiled(world, file, raw, read)
	}
	return ParseLegacy(world, file, raw)
}

// ApplyMeta overlays the map list entry onto a parsed map. A spawn from the
// list wins over one declared in the map file.
func ApplyMeta(m *types.Map, meta types.MapMeta) {
	if meta.Spawn != nil {
		spawn := *meta.Spawn
		m.Spawn = &spawn
	}
	m.Difficulty = meta.Difficulty
	m.Threat = meta.Threat
	m.Summary = meta.Summary
	m.Weather = meta.Weather
	m.Recommendation = meta.Recommendation
}

// Repository reads a worlds directory laid out as
//
//	<base>/Worlds.wrld
//	<base>/<world>/<world>.maps
//	<base>/<world>/<map file>
type Repository struct {
	Base string
	fsys fs.FS
}

// NewRepository creates a repository rooted at base on the local disk.
func NewRepository(base string) *Repository {
	return &Repository{Base: base, fsys: os.DirFS(base)}
}

// NewRepositoryFS creates a repository over an arbitrary file system.
func NewRepositoryFS(fsys fs.FS) *Repository {
	return &Repository{fsys: fsys}
}

// ListWorlds reads and parses the world list.
func (r *Repository) ListWorlds() ([]types.World, error) {
	raw, err := r.read(WorldListFile)
	if err != nil {
		return nil, err
	}
	return ParseWorldList(WorldListFile, raw)
}

// ListMaps reads and parses a world's map list.
func (r *Repository) ListMaps(world string) ([]types.MapMeta, error) {
	name := path.Join(world, world+".maps")
	raw, err := r.read(name)
	if err != nil {
		return nil, err
	}
	return ParseMapList(name, raw)
}

// LoadMap reads and parses one map file of a world.
func (r *Repository) LoadMap(world, file string) (*types.Map, error) {
	name := path.Join(world, file)
	raw, err := r.read(name)
	if err != nil {
		return nil, err
	}
	dir := path.Dir(name)
	return Parse(world, file, raw, func(ref string) ([]byte, error) {
		return r.read(path.Join(dir, ref))
	})
}

func (r *Repository) read(name string) ([]byte, error) {
	name = filepath.ToSlash(path.Clean(name))
	raw, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NotFound("file", name)
	}
	if err != nil {
		return nil, errs.IO("reading "+name, err)
	}
	return raw, nil
}
