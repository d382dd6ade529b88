package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// idField is the record field a curried constructor's argument fills.
var idField = map[Kind]string{
	KindEnemy:     "id",
	KindNPC:       "id",
	KindItem:      "id",
	KindQuest:     "id",
	KindCharacter: "file",
}

// constructors maps Lua globals to the kind they define.
var constructors = map[string]Kind{
	"Enemy":     KindEnemy,
	"NPC":       KindNPC,
	"Item":      KindItem,
	"Quest":     KindQuest,
	"Character": KindCharacter,
}

// collector accumulates records declared while a script runs.
type collector struct {
	records map[Kind][]*lua.LTable
}

// runScript executes a catalog script in a fresh sandboxed VM and returns
// the records of kind as a JSON array. The VM is discarded afterwards.
func runScript(name string, src []byte, kind Kind) ([]byte, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{records: make(map[Kind][]*lua.LTable)}
	registerAPI(L, coll)

	fn, err := L.Load(strings.NewReader(string(src)), name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("executing %s: %w", name, err)
	}

	out := make([]any, 0, len(coll.records[kind]))
	for _, tbl := range coll.records[kind] {
		out = append(out, toGo(tbl))
	}
	return json.Marshal(out)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the script.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
	}
}

// registerAPI installs the record constructors and helpers.
func registerAPI(L *lua.LState, coll *collector) {
	// Enemy "wolf" { name = "Wolf", hp = 20 } and friends: curried, the
	// string fills the record's id field.
	for global, kind := range constructors {
		kind := kind
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				tbl.RawSetString(idField[kind], lua.LString(id))
				coll.records[kind] = append(coll.records[kind], tbl)
				return 0
			}))
			return 1
		}))
	}

	// Node("id", "text", { Choice(...), ... })
	L.SetGlobal("Node", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LString(L.CheckString(1)))
		tbl.RawSetString("text", lua.LString(L.CheckString(2)))
		if choices, ok := L.Get(3).(*lua.LTable); ok {
			tbl.RawSetString("choices", choices)
		}
		L.Push(tbl)
		return 1
	}))

	// Choice("label", "next")
	L.SetGlobal("Choice", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("label", lua.LString(L.CheckString(1)))
		tbl.RawSetString("next", lua.LString(L.OptString(2, "end")))
		L.Push(tbl)
		return 1
	}))

	// Talk("objective", "npc" [, "node"])
	L.SetGlobal("Talk", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LString(L.CheckString(1)))
		tbl.RawSetString("type", lua.LString("dialogue"))
		tbl.RawSetString("npcId", lua.LString(L.CheckString(2)))
		if node := L.OptString(3, ""); node != "" {
			tbl.RawSetString("nodeId", lua.LString(node))
		}
		L.Push(tbl)
		return 1
	}))

	// Reach("objective", x, y [, radius])
	L.SetGlobal("Reach", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LString(L.CheckString(1)))
		tbl.RawSetString("type", lua.LString("location"))
		tbl.RawSetString("x", L.CheckNumber(2))
		tbl.RawSetString("y", L.CheckNumber(3))
		if r := L.OptNumber(4, 0); r > 0 {
			tbl.RawSetString("radius", r)
		}
		L.Push(tbl)
		return 1
	}))

	// Grant("item" [, quantity])
	L.SetGlobal("Grant", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LString(L.CheckString(1)))
		tbl.RawSetString("quantity", L.OptNumber(2, 1))
		L.Push(tbl)
		return 1
	}))
}

// toGo converts a Lua value into the equivalent JSON-ready Go value. Tables
// with only consecutive integer keys from 1 become slices and empty tables
// become nil.
func toGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case *lua.LTable:
		return tableToGo(v)
	}
	return nil
}

func tableToGo(tbl *lua.LTable) any {
	n := tbl.Len()
	keys := 0
	tbl.ForEach(func(lua.LValue, lua.LValue) { keys++ })
	if keys == 0 {
		return nil
	}
	if n == keys {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, toGo(tbl.RawGetInt(i)))
		}
		return out
	}
	out := make(map[string]any, keys)
	tbl.ForEach(func(k, val lua.LValue) {
		if s, ok := k.(lua.LString); ok {
			out[string(s)] = toGo(val)
		}
	})
	return out
}
