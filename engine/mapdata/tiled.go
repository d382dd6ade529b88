package mapdata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/types"
)

// Transform flag bits carried in the high nibble of a global tile id.
const (
	flagFlipH   uint32 = 0x80000000
	flagFlipV   uint32 = 0x40000000
	flagFlipD   uint32 = 0x20000000
	flagRotHex  uint32 = 0x10000000
	gidMask            = ^(flagFlipH | flagFlipV | flagFlipD | flagRotHex)
)

// ReadFunc reads a file referenced by a map, relative to the map's directory.
type ReadFunc func(name string) ([]byte, error)

type tmxProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type tmxImage struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

type tmxTileset struct {
	FirstGID   uint32   `xml:"firstgid,attr"`
	Source     string   `xml:"source,attr"`
	Name       string   `xml:"name,attr"`
	TileWidth  int      `xml:"tilewidth,attr"`
	TileHeight int      `xml:"tileheight,attr"`
	TileCount  int      `xml:"tilecount,attr"`
	Columns    int      `xml:"columns,attr"`
	Image      tmxImage `xml:"image"`
}

type tmxTile struct {
	GID string `xml:"gid,attr"`
}

type tmxData struct {
	Encoding    string    `xml:"encoding,attr"`
	Compression string    `xml:"compression,attr"`
	Text        string    `xml:",chardata"`
	Tiles       []tmxTile `xml:"tile"`
}

type tmxLayer struct {
	ID         int           `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Width      int           `xml:"width,attr"`
	Height     int           `xml:"height,attr"`
	Properties []tmxProperty `xml:"properties>property"`
	Data       tmxData       `xml:"data"`
}

type tmxMap struct {
	XMLName    xml.Name      `xml:"map"`
	Width      int           `xml:"width,attr"`
	Height     int           `xml:"height,attr"`
	TileWidth  int           `xml:"tilewidth,attr"`
	TileHeight int           `xml:"tileheight,attr"`
	Properties []tmxProperty `xml:"properties>property"`
	Tilesets   []tmxTileset  `xml:"tileset"`
	Layers     []tmxLayer    `xml:"layer"`
}

// ParseTiled parses the tileset-indexed markup grammar. External tileset
// references are fetched through read, relative to the map's directory.
// Image references are resolved relative to the world directory.
func ParseTiled(world, file string, raw []byte, read ReadFunc) (*types.Map, error) {
	var doc tmxMap
	if err := decodeXML(file, raw, &doc); err != nil {
		return nil, err
	}
	if doc.TileWidth <= 0 || doc.TileHeight <= 0 {
		return nil, errs.Malformed(file, elementLine(raw, "map", 0), "invalid tile size %dx%d", doc.TileWidth, doc.TileHeight)
	}
	if len(doc.Layers) == 0 {
		return nil, errs.Malformed(file, 0, "no layers")
	}

	mapProps, err := convertProperties(file, elementLine(raw, "map", 0), doc.Properties)
	if err != nil {
		return nil, err
	}

	m := &types.Map{
		Format:     types.FormatTiled,
		World:      world,
		FileName:   file,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
		Properties: mapProps,
	}

	mapDir := path.Dir(file)
	for i, ref := range doc.Tilesets {
		ts, err := resolveTileset(world, file, mapDir, ref, elementLine(raw, "tileset", i), read)
		if err != nil {
			return nil, err
		}
		m.Tilesets = append(m.Tilesets, ts)
	}
	sort.SliceStable(m.Tilesets, func(i, j int) bool {
		return m.Tilesets[i].FirstGID < m.Tilesets[j].FirstGID
	})
	if len(m.Tilesets) > 0 {
		m.SpriteSheet = m.Tilesets[0].Image
	}

	for i, l := range doc.Layers {
		line := elementLine(raw, "layer", i)
		layer, err := convertLayer(file, line, i, l, doc.Width, doc.Height)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			m.GridWidth, m.GridHeight = layer.GridWidth, layer.GridHeight
		}
		m.Layers = append(m.Layers, layer)
	}

	if x, okX := NumberProp(mapProps, "spawnX"); okX {
		if y, okY := NumberProp(mapProps, "spawnY"); okY {
			m.Spawn = &types.Point{X: x, Y: y}
		}
	}
	return m, nil
}

func decodeXML(file string, raw []byte, v any) error {
	d := xml.NewDecoder(bytes.NewReader(raw))
	if err := d.Decode(v); err != nil {
		var syn *xml.SyntaxError
		if errors.As(err, &syn) {
			return errs.Malformed(file, syn.Line, "%s", syn.Msg)
		}
		line, _ := d.InputPos()
		return errs.Malformed(file, line, "%v", err)
	}
	return nil
}

func resolveTileset(world, file, mapDir string, ref tmxTileset, line int, read ReadFunc) (types.Tileset, error) {
	def := ref
	imageDir := mapDir
	if ref.Source != "" {
		if read == nil {
			return types.Tileset{}, errs.Malformed(file, line, "external tileset %q cannot be resolved", ref.Source)
		}
		data, err := read(ref.Source)
		if err != nil {
			return types.Tileset{}, err
		}
		var ext struct {
			XMLName xml.Name `xml:"tileset"`
			tmxTileset
		}
		if err := decodeXML(ref.Source, data, &ext); err != nil {
			return types.Tileset{}, err
		}
		def = ext.tmxTileset
		imageDir = path.Join(mapDir, path.Dir(ref.Source))
	}
	if ref.FirstGID == 0 {
		return types.Tileset{}, errs.Malformed(file, line, "tileset without firstgid")
	}

	ts := types.Tileset{
		Name:        def.Name,
		FirstGID:    int32(ref.FirstGID & gidMask),
		TileCount:   def.TileCount,
		Columns:     def.Columns,
		TileWidth:   def.TileWidth,
		TileHeight:  def.TileHeight,
		ImageWidth:  def.Image.Width,
		ImageHeight: def.Image.Height,
	}
	if def.Image.Source != "" {
		ts.Image = path.Join(world, imageDir, def.Image.Source)
	}
	if ts.Columns == 0 && ts.TileWidth > 0 {
		ts.Columns = ts.ImageWidth / ts.TileWidth
	}
	if ts.TileCount == 0 && ts.TileHeight > 0 {
		ts.TileCount = ts.Columns * (ts.ImageHeight / ts.TileHeight)
	}
	return ts, nil
}

func convertLayer(file string, line, index int, l tmxLayer, mapW, mapH int) (types.Layer, error) {
	w, h := l.Width, l.Height
	if w == 0 {
		w = mapW
	}
	if h == 0 {
		h = mapH
	}
	if w <= 0 || h <= 0 {
		return types.Layer{}, errs.Malformed(file, line, "layer %d has invalid size %dx%d", index, w, h)
	}

	props, err := convertProperties(file, line, l.Properties)
	if err != nil {
		return types.Layer{}, err
	}

	var tokens []string
	switch strings.ToLower(l.Data.Encoding) {
	case "csv":
		tokens = strings.Split(l.Data.Text, ",")
	case "":
		for _, t := range l.Data.Tiles {
			tokens = append(tokens, t.GID)
		}
	default:
		return types.Layer{}, errs.Malformed(file, line, "layer %d uses unsupported encoding %q", index, l.Data.Encoding)
	}

	expected := w * h
	tiles := make([]int32, 0, expected)
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			if l.Data.Encoding == "" {
				tiles = append(tiles, types.EmptyTiledTile)
			}
			continue
		}
		if len(tiles) == expected {
			break
		}
		gid, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return types.Layer{}, errs.Malformed(file, line, "layer %d has invalid tile id %q", index, tok)
		}
		tiles = append(tiles, int32(uint32(gid)&gidMask))
	}
	if len(tiles) < expected {
		return types.Layer{}, errs.Malformed(file, line, "layer %d is missing tile data: %d of %d tiles", index, len(tiles), expected)
	}
	tiles = tiles[:expected]

	name := l.Name
	if name == "" {
		name = "layer-" + strconv.Itoa(index)
	}
	id := l.ID
	if id == 0 {
		id = index
	}
	return types.Layer{
		ID:         id,
		Name:       name,
		GridWidth:  w,
		GridHeight: h,
		Tiles:      tiles,
		Properties: props,
	}, nil
}

func convertProperties(file string, line int, raw []tmxProperty) (map[string]types.Property, error) {
	props := make(map[string]types.Property, len(raw))
	for _, p := range raw {
		value := p.Value
		if value == "" {
			value = p.Text
		}
		prop, err := CoerceProperty(p.Type, value)
		if err != nil {
			return nil, errs.Malformed(file, line, "property %q: %v", p.Name, err)
		}
		props[p.Name] = prop
	}
	return props, nil
}

// elementLine returns the 1-based line of the n-th <name> start tag, or 0.
func elementLine(raw []byte, name string, n int) int {
	open := []byte("<" + name)
	seen := 0
	for i := 0; i+len(open) < len(raw); i++ {
		if !bytes.HasPrefix(raw[i:], open) {
			continue
		}
		next := raw[i+len(open)]
		if next != ' ' && next != '>' && next != '/' && next != '\n' && next != '\t' && next != '\r' {
			continue
		}
		if seen == n {
			return 1 + bytes.Count(raw[:i], []byte("\n"))
		}
		seen++
	}
	return 0
}
