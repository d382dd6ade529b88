package loader

import (
	"fmt"
	"path"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/save"
	"github.com/nathoo/amgis/types"
)

// KindSnapshot selects the save snapshot schema.
const KindSnapshot Kind = "snapshot"

var recordTypes = map[Kind]reflect.Type{
	KindEnemy:     reflect.TypeOf(types.Enemy{}),
	KindNPC:       reflect.TypeOf(types.NPC{}),
	KindItem:      reflect.TypeOf(types.Item{}),
	KindQuest:     reflect.TypeOf(types.Quest{}),
	KindCharacter: reflect.TypeOf(types.Character{}),
}

// Schema returns the JSON Schema of a catalog file of kind, or of a save
// snapshot for KindSnapshot. Catalog files are either a bare array of
// records or an object holding that array under the plural kind name.
func Schema(kind Kind) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}

	if kind == KindSnapshot {
		s := reflector.ReflectFromType(reflect.TypeOf(save.Snapshot{}))
		s.Title = "Amgis Save Snapshot"
		return s, nil
	}

	rt, ok := recordTypes[kind]
	if !ok {
		return nil, errs.NotFound("schema kind", string(kind))
	}
	record := reflector.ReflectFromType(rt)
	record.Version = ""
	record.Title = fmt.Sprintf("Amgis %s record", kind)

	array := &jsonschema.Schema{
		Type:  "array",
		Title: "Array Catalog",
		Items: record,
	}
	object := &jsonschema.Schema{
		Type:                 "object",
		Title:                "Object Catalog",
		Description:          fmt.Sprintf("Records held under the %q key.", path.Base(stems[kind])),
		AdditionalProperties: array,
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       fmt.Sprintf("Amgis %s catalog", kind),
		Description: fmt.Sprintf("Contents of %s.json.", stems[kind]),
		OneOf:       []*jsonschema.Schema{array, object},
	}, nil
}
