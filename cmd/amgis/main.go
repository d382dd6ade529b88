// Amgis is a tile-world exploration and turn-based combat game.
// Usage: amgis [--version] [--plain] [--script <file>] [--trace] [--data <dir>] [--store <file>] [--schema <kind>]
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nathoo/amgis/cli"
	"github.com/nathoo/amgis/engine"
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/mapdata"
	"github.com/nathoo/amgis/loader"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/storage"
	"github.com/nathoo/amgis/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: amgis [--version] [--plain] [--script <file>] [--trace] [--data <dir>] [--store <file>] [--schema <kind>]"

func main() {
	plain := false
	trace := false
	dataDir := "GameData"
	var storePath, scriptFile, schemaKind string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		next := func(flag string) string {
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
				os.Exit(1)
			}
			i++
			return args[i]
		}
		switch args[i] {
		case "--version":
			fmt.Printf("amgis %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			scriptFile = next("--script")
		case "--data":
			dataDir = next("--data")
		case "--store":
			storePath = next("--store")
		case "--schema":
			schemaKind = next("--schema")
		default:
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(1)
		}
	}

	logger.Init(os.Stderr)

	if schemaKind != "" {
		if err := printSchema(schemaKind); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cat, report, err := loader.Load(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game data: %v\n", err)
		os.Exit(1)
	}
	if n := len(report.Warnings); n > 0 {
		logger.Log.WithField("warnings", n).Warn("game data loaded with problems")
	}

	if storePath == "" {
		storePath = defaultStorePath()
	}
	store, err := storage.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	settings, err := store.GetSettings()
	if err != nil {
		logger.Log.WithError(err).Warn("could not read settings, using defaults")
	}

	s := engine.New(mapdata.NewRepository(worldsDir(dataDir)), cat, engine.Options{
		Seed:     time.Now().UnixNano(),
		Settings: store,
		Zoom:     settings.Zoom,
	})
	s.Hydrate(settings.Inventory, settings.Quests)
	if path := settings.LastCharacterPath; path != "" {
		if err := s.SelectCharacter(path); err != nil {
			logger.Log.WithError(err).Warn("last character is gone")
		}
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(s, store)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(s, store)
		c.Trace = trace
		c.Run()
		return
	}

	// The TUI owns the terminal.
	logger.Silence()
	if err := tui.Run(s, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printSchema(kind string) error {
	schema, err := loader.Schema(loader.Kind(kind))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w (kinds: %v, %s)", err, loader.Kinds, loader.KindSnapshot)
		}
		return err
	}
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// worldsDir prefers <data>/Worlds when it holds a world list.
func worldsDir(data string) string {
	dir := filepath.Join(data, "Worlds")
	if _, err := os.Stat(filepath.Join(dir, mapdata.WorldListFile)); err == nil {
		return dir
	}
	return data
}

// defaultStorePath is amgis.db in the user config directory, or in the
// working directory when there is none.
func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "amgis.db"
	}
	dir = filepath.Join(dir, "amgis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "amgis.db"
	}
	return filepath.Join(dir, "amgis.db")
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
