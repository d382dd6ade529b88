// Package engine provides the Session that owns all mutable game state and
// advances it one frame at a time.
//
// Each Tick runs, in order: the scheduled-event queue, the player controller,
// the camera, NPC proximity and location objectives. Dialogue and overlays
// freeze movement but keep stamina regenerating; combat suspends the
// real-time step entirely.
package engine

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/amgis/catalog"
	"github.com/nathoo/amgis/engine/camera"
	"github.com/nathoo/amgis/engine/collision"
	"github.com/nathoo/amgis/engine/combat"
	"github.com/nathoo/amgis/engine/dialogue"
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/inventory"
	"github.com/nathoo/amgis/engine/mapdata"
	"github.com/nathoo/amgis/engine/npc"
	"github.com/nathoo/amgis/engine/player"
	"github.com/nathoo/amgis/engine/quest"
	"github.com/nathoo/amgis/engine/save"
	"github.com/nathoo/amgis/engine/schedule"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

// Provider supplies worlds, map lists and maps.
type Provider interface {
	ListWorlds() ([]types.World, error)
	ListMaps(world string) ([]types.MapMeta, error)
	LoadMap(world, file string) (*types.Map, error)
}

// SettingsWriter persists a shallow patch into the settings blob.
type SettingsWriter interface {
	SaveSettings(patch map[string]any) error
}

// Mode is what the session is currently doing.
type Mode string

const (
	ModeSetup     Mode = "setup" // no map loaded
	ModeExplore   Mode = "explore"
	ModeDialogue  Mode = "dialogue"
	ModeInventory Mode = "inventory"
	ModeQuestLog  Mode = "quest-log"
	ModeCombat    Mode = "combat"
)

// Default screen size in pixels until Resize is called.
const (
	DefaultScreenWidth  = 960
	DefaultScreenHeight = 640
)

// Options configure a new Session.
type Options struct {
	Seed     int64
	Settings SettingsWriter // optional
	Zoom     float64
}

// Session is the single owner of runtime state.
type Session struct {
	provider Provider
	cat      *catalog.Catalog
	settings SettingsWriter

	world     types.World
	mapMeta   types.MapMeta
	gameMap   *types.Map
	grid      *collision.Grid
	character *types.Character

	player   *player.Player
	held     player.Intents
	cam      camera.Camera
	zoom     float64
	screenW  float64
	screenH  float64
	npcs     *npc.Tracker
	dialogue *dialogue.Engine
	quests   *quest.Tracker
	inv      *inventory.Inventory
	combat   *combat.Session
	sched    *schedule.Queue
	rng      *combat.RNG

	inventoryOpen bool
	questLogOpen  bool
	notices       []string
}

// New creates a session with starter inventory and fresh quest progress.
func New(provider Provider, cat *catalog.Catalog, opts Options) *Session {
	rng := combat.NewRNG(opts.Seed)
	sched := schedule.New()
	s := &Session{
		provider: provider,
		cat:      cat,
		settings: opts.Settings,
		player:   player.New(),
		held:     player.NewIntents(),
		zoom:     camera.ZoomDefault,
		screenW:  DefaultScreenWidth,
		screenH:  DefaultScreenHeight,
		npcs:     npc.NewTracker(),
		sched:    sched,
		rng:      rng,
		combat:   combat.NewSession(rng, sched),
	}
	if opts.Zoom != 0 {
		s.zoom = camera.ClampZoom(opts.Zoom)
	}
	s.dialogue = dialogue.New(s.onDialogueNode)
	s.inv, s.quests = s.newProgress()
	s.inv.Hydrate(nil)
	return s
}

func (s *Session) newProgress() (*inventory.Inventory, *quest.Tracker) {
	inv := inventory.New(s.cat)
	return inv, quest.NewTracker(s.cat.Quests, inv.Add)
}

// Hydrate replaces inventory and quest progress with persisted records.
// A nil inventory record yields the starter loadout.
func (s *Session) Hydrate(inv *types.InventoryRecord, quests *types.QuestLogRecord) {
	if s.inv.Hydrate(inv) {
		s.persistInventory()
	}
	s.quests.Hydrate(quests)
	s.recomputeDerived()
}

// Worlds lists the available worlds.
func (s *Session) Worlds() ([]types.World, error) {
	return s.provider.ListWorlds()
}

// Maps lists the maps of a world.
func (s *Session) Maps(world string) ([]types.MapMeta, error) {
	return s.provider.ListMaps(world)
}

// SelectCharacter chooses the avatar by its file path.
func (s *Session) SelectCharacter(path string) error {
	ch, ok := s.cat.Character(path)
	if !ok {
		return errs.NotFound("character", path)
	}
	s.character = &ch
	s.persist(map[string]any{"lastCharacterPath": path})
	return nil
}

func (s *Session) ensureCharacter() {
	if s.character == nil && len(s.cat.Characters) > 0 {
		ch := s.cat.Characters[0]
		s.character = &ch
	}
}

// loaded is a fully resolved map ready to be swapped in.
type loaded struct {
	world types.World
	meta  types.MapMeta
	m     *types.Map
	grid  *collision.Grid
}

func (s *Session) resolveMap(worldName, mapFile string) (*loaded, error) {
	worlds, err := s.provider.ListWorlds()
	if err != nil {
		return nil, err
	}
	var l loaded
	found := false
	for _, w := range worlds {
		if w.Name == worldName {
			l.world, found = w, true
			break
		}
	}
	if !found {
		return nil, errs.NotFound("world", worldName)
	}
	metas, err := s.provider.ListMaps(worldName)
	if err != nil {
		return nil, err
	}
	found = false
	for _, m := range metas {
		if m.FileName == mapFile {
			l.meta, found = m, true
			break
		}
	}
	if !found {
		return nil, errs.NotFound("map", worldName+"/"+mapFile)
	}
	m, err := s.provider.LoadMap(worldName, mapFile)
	if err != nil {
		return nil, err
	}
	mapdata.ApplyMeta(m, l.meta)
	l.m = m
	l.grid = collision.Build(m)
	return &l, nil
}

// EnterMap loads a map and places the player at its spawn point, or its
// centre when it declares none. Stamina is restored to full.
func (s *Session) EnterMap(worldName, mapFile string) error {
	l, err := s.resolveMap(worldName, mapFile)
	if err != nil {
		return err
	}
	s.ensureCharacter()
	s.install(l)
	w, h := mapdata.PixelSize(l.m)
	x, y := w/2, h/2
	if l.m.Spawn != nil {
		x, y = l.m.Spawn.X, l.m.Spawn.Y
	}
	s.player.Stamina = s.player.MaxStamina
	s.player.Place(x, y, w, h)
	s.afterPlacement()
	logger.Log.WithFields(logrus.Fields{
		"world":   worldName,
		"map":     mapFile,
		"blocked": l.grid.BlockedCount(),
	}).Info("entered map")
	return nil
}

// install swaps in a resolved map and resets per-map state.
func (s *Session) install(l *loaded) {
	s.combat.Abort()
	s.dialogue.Close()
	s.inventoryOpen, s.questLogOpen = false, false
	s.held = player.NewIntents()

	s.world, s.mapMeta, s.gameMap, s.grid = l.world, l.meta, l.m, l.grid
	p := player.New()
	p.Radius = player.RadiusForTiles(l.m.TileWidth, l.m.TileHeight)
	p.Direction = s.player.Direction
	s.player = p
	s.npcs.Sync(s.cat.NPCs, l.world.Name, l.m.FileName)
	s.recomputeDerived()
}

func (s *Session) afterPlacement() {
	s.resizeCamera()
	w, h := mapdata.PixelSize(s.gameMap)
	s.cam.Update(s.player.Spawned, s.player.X, s.player.Y, w, h)
	s.npcs.Update(s.player.X, s.player.Y)
}

// Tick advances the session by dt.
func (s *Session) Tick(dt time.Duration) {
	s.sched.Advance(dt)
	if s.gameMap == nil || !s.player.Spawned {
		s.cam.X, s.cam.Y = 0, 0
		return
	}
	if s.combat.Active() {
		return
	}
	secs := dt.Seconds()
	w, h := mapdata.PixelSize(s.gameMap)
	if s.frozen() {
		s.player.Idle(secs)
	} else {
		s.player.Update(secs, s.held, s.grid, w, h)
	}
	s.cam.Update(s.player.Spawned, s.player.X, s.player.Y, w, h)
	if !s.dialogue.Active() {
		s.npcs.Update(s.player.X, s.player.Y)
	}
	if s.quests.OnPosition(s.world.Name, s.gameMap.FileName, s.player.X, s.player.Y) {
		s.progressChanged()
	}
}

func (s *Session) frozen() bool {
	return s.dialogue.Active() || s.inventoryOpen || s.questLogOpen
}

// Mode reports what the session is doing.
func (s *Session) Mode() Mode {
	switch {
	case s.gameMap == nil:
		return ModeSetup
	case s.combat.Active():
		return ModeCombat
	case s.dialogue.Active():
		return ModeDialogue
	case s.inventoryOpen:
		return ModeInventory
	case s.questLogOpen:
		return ModeQuestLog
	}
	return ModeExplore
}

// Press holds an intent. Ignored while movement is frozen.
func (s *Session) Press(in player.Intent) bool {
	if s.Mode() != ModeExplore {
		return false
	}
	s.held.Put(in)
	return true
}

// Release lets go of an intent.
func (s *Session) Release(in player.Intent) {
	s.held.Remove(in)
}

// ReleaseAll clears every held intent.
func (s *Session) ReleaseAll() {
	s.held = player.NewIntents()
}

// Held reports whether an intent is held.
func (s *Session) Held(in player.Intent) bool {
	return s.held.Has(in)
}

// Interact opens dialogue with the NPC in range.
func (s *Session) Interact() error {
	if s.Mode() != ModeExplore {
		return errs.Precondition("cannot talk while in %s", s.Mode())
	}
	n, ok := s.npcs.Nearby()
	if !ok {
		return errs.Precondition("nobody is close enough to talk to")
	}
	s.ReleaseAll()
	s.dialogue.Open(n)
	return nil
}

// Choose follows a dialogue choice by index.
func (s *Session) Choose(i int) error {
	if !s.dialogue.Active() {
		return errs.Precondition("no dialogue open")
	}
	if !s.dialogue.Choose(i) {
		s.npcs.Update(s.player.X, s.player.Y)
	}
	return nil
}

// CloseDialogue ends the conversation.
func (s *Session) CloseDialogue() {
	if s.dialogue.Active() {
		s.dialogue.Close()
		s.npcs.Update(s.player.X, s.player.Y)
	}
}

func (s *Session) onDialogueNode(npcID string, node types.DialogueNode) {
	if s.quests.OnDialogueNode(npcID, node.ID) {
		s.progressChanged()
	}
}

// ToggleInventory opens or closes the inventory overlay.
func (s *Session) ToggleInventory() bool {
	if s.gameMap == nil || s.combat.Active() {
		return false
	}
	s.inventoryOpen = !s.inventoryOpen
	if s.inventoryOpen {
		s.ReleaseAll()
	}
	return s.inventoryOpen
}

// ToggleQuestLog opens or closes the quest overlay.
func (s *Session) ToggleQuestLog() bool {
	if s.gameMap == nil || s.combat.Active() {
		return false
	}
	s.questLogOpen = !s.questLogOpen
	if s.questLogOpen {
		s.ReleaseAll()
	}
	return s.questLogOpen
}

// Dismiss closes the topmost of dialogue, inventory and quest log.
func (s *Session) Dismiss() bool {
	switch {
	case s.dialogue.Active():
		s.CloseDialogue()
	case s.inventoryOpen:
		s.inventoryOpen = false
	case s.questLogOpen:
		s.questLogOpen = false
	default:
		return false
	}
	return true
}

// Equip equips an item and refreshes derived stats.
func (s *Session) Equip(itemID string) error {
	if _, err := s.inv.Equip(itemID); err != nil {
		return err
	}
	s.recomputeDerived()
	s.persistInventory()
	return nil
}

// Unequip empties a slot.
func (s *Session) Unequip(slot types.Slot) error {
	if !s.inv.Unequip(slot) {
		return errs.Precondition("nothing equipped in %s", slot)
	}
	s.recomputeDerived()
	s.persistInventory()
	return nil
}

// UseItem consumes one consumable. During an encounter it heals the player.
func (s *Session) UseItem(itemID string) (healed int, err error) {
	if s.combat.State() == combat.Defeat {
		return 0, errs.Precondition("cannot use items after defeat")
	}
	def, err := s.inv.Use(itemID)
	if err != nil {
		return 0, err
	}
	if s.combat.Active() {
		healed = s.combat.Heal(def.HealAmount, def.Name)
	} else {
		logger.Log.WithField("item", def.ID).Info("consumable used outside combat")
	}
	s.recomputeDerived()
	s.persistInventory()
	return healed, nil
}

// playerStats returns base combat stats plus equipment bonuses.
func (s *Session) playerStats() combat.Stats {
	b := s.inv.Bonuses()
	return combat.BaseStats.Plus(combat.Stats{MaxHP: b.MaxHP, Attack: b.Attack, Defense: b.Defense, Speed: b.Speed})
}

func (s *Session) recomputeDerived() {
	b := s.inv.Bonuses()
	s.player.Speed = player.SpeedFor(float64(b.Movement))
	s.player.MaxStamina = player.MaxStamina
	s.player.Stamina = math.Min(s.player.Stamina, s.player.MaxStamina)
	s.combat.Rescale(s.playerStats())
}

// StartEncounter begins combat against enemyID, or a random enemy when
// enemyID is empty.
func (s *Session) StartEncounter(enemyID string) error {
	if s.gameMap == nil {
		return errs.Precondition("no map loaded")
	}
	if s.combat.Active() {
		return errs.Precondition("encounter already in progress")
	}
	if len(s.cat.Enemies) == 0 {
		return errs.NotFound("enemy", "any")
	}
	var tmpl types.Enemy
	if enemyID == "" {
		tmpl = s.cat.Enemies[s.rng.Pick(len(s.cat.Enemies))]
	} else {
		e, ok := s.cat.Enemy(enemyID)
		if !ok {
			return errs.NotFound("enemy", enemyID)
		}
		tmpl = e
	}
	var name, rank string
	if s.character != nil {
		name, rank = s.character.Name, s.character.Gender
	}
	s.dialogue.Close()
	s.inventoryOpen, s.questLogOpen = false, false
	s.ReleaseAll()
	return s.combat.Start(combat.PlayerCombatant(name, rank, s.playerStats()), combat.CloneEnemy(tmpl))
}

// Attack, Defend, Retreat and Continue drive the encounter.
func (s *Session) Attack() error  { return s.combat.Attack() }
func (s *Session) Defend() error  { return s.combat.Defend() }
func (s *Session) Retreat() error { return s.combat.Retreat() }

func (s *Session) Continue() error {
	if err := s.combat.Continue(); err != nil {
		return err
	}
	s.returnToExploration()
	return nil
}

// ReturnToExploration leaves combat from any state, discarding a pending
// enemy turn.
func (s *Session) ReturnToExploration() {
	s.combat.Abort()
	s.returnToExploration()
}

func (s *Session) returnToExploration() {
	if s.gameMap != nil {
		s.npcs.Update(s.player.X, s.player.Y)
	}
}

// SetTracked changes the quest shown in the HUD.
func (s *Session) SetTracked(questID string) error {
	if !s.quests.SetTracked(questID) {
		return errs.NotFound("quest", questID)
	}
	s.persistQuests()
	return nil
}

// SetZoom sets the zoom level, snapped and clamped, and persists it.
func (s *Session) SetZoom(z float64) float64 {
	next := camera.ClampZoom(z)
	if next == s.zoom {
		return s.zoom
	}
	s.zoom = next
	if s.gameMap != nil {
		s.afterPlacement()
	}
	s.persist(map[string]any{"zoom": s.zoom})
	return s.zoom
}

// ZoomBy changes the zoom by steps of camera.ZoomStep.
func (s *Session) ZoomBy(steps int) float64 {
	return s.SetZoom(s.zoom + float64(steps)*camera.ZoomStep)
}

// Zoom returns the current zoom level.
func (s *Session) Zoom() float64 { return s.zoom }

// Resize sets the screen size in pixels.
func (s *Session) Resize(w, h float64) {
	s.screenW, s.screenH = math.Max(1, w), math.Max(1, h)
	if s.gameMap != nil {
		s.afterPlacement()
	}
}

func (s *Session) resizeCamera() {
	w, h := mapdata.PixelSize(s.gameMap)
	s.cam.Resize(s.screenW, s.screenH, s.zoom, w, h)
}

// DrainNotices returns pending notifications and clears them.
func (s *Session) DrainNotices() []string {
	out := append(s.notices, s.quests.DrainNotices()...)
	s.notices = nil
	return out
}

func (s *Session) progressChanged() {
	s.notices = append(s.notices, s.quests.DrainNotices()...)
	s.persistQuests()
	s.persistInventory()
}

func (s *Session) persistInventory() {
	s.persist(map[string]any{"inventory": s.inv.Record()})
}

func (s *Session) persistQuests() {
	s.persist(map[string]any{"quests": s.quests.Record()})
}

func (s *Session) persist(patch map[string]any) {
	if s.settings == nil {
		return
	}
	if err := s.settings.SaveSettings(patch); err != nil {
		logger.Log.WithError(err).Warn("failed to persist settings")
	}
}

// Capture snapshots the session. Positions and stamina are rounded.
func (s *Session) Capture(now time.Time) (*save.Snapshot, error) {
	if s.gameMap == nil || !s.player.Spawned {
		return nil, errs.Precondition("nothing to save before a map is entered")
	}
	if s.character == nil {
		return nil, errs.Precondition("nothing to save without a character")
	}
	snap := &save.Snapshot{
		Version:         save.Version,
		SavedAt:         now.UnixMilli(),
		WorldName:       s.world.Name,
		WorldDifficulty: s.world.Difficulty,
		MapFileName:     s.gameMap.FileName,
		MapName:         s.mapMeta.Name,
		MapDifficulty:   s.mapMeta.Difficulty,
		MapThreat:       s.mapMeta.Threat,
		Inventory:       s.inv.Record(),
		Quests:          s.quests.Record(),
		Player: save.PlayerState{
			X:         save.Round(s.player.X),
			Y:         save.Round(s.player.Y),
			Direction: string(s.player.Direction),
			Stamina:   save.Round(s.player.Stamina),
		},
		Zoom: s.zoom,
	}
	if s.character != nil {
		snap.CharacterPath = s.character.File
		snap.CharacterName = s.character.Name
	}
	return snap, nil
}

// Restore replaces the session with the snapshot in. Nothing changes unless
// the world, the map and the character all resolve. in is never modified.
func (s *Session) Restore(in *save.Snapshot) error {
	if err := in.Validate(); err != nil {
		return err
	}
	// Normalize replaces nil fields only, so a shallow copy keeps in intact.
	cp := *in
	snap := &cp
	snap.Normalize()
	l, err := s.resolveMap(snap.WorldName, snap.MapFileName)
	if err != nil {
		return err
	}
	var ch *types.Character
	if snap.CharacterPath != "" {
		c, ok := s.cat.Character(snap.CharacterPath)
		if !ok {
			return errs.NotFound("character", snap.CharacterPath)
		}
		ch = &c
	}
	inv, quests := s.newProgress()
	inv.Hydrate(&snap.Inventory)
	quests.Hydrate(&snap.Quests)

	// Commit.
	if ch != nil {
		s.character = ch
	}
	s.ensureCharacter()
	s.inv, s.quests = inv, quests
	s.install(l)
	s.zoom = camera.ClampZoom(snap.Zoom)
	w, h := mapdata.PixelSize(l.m)
	s.player.Direction = player.ParseDirection(snap.Player.Direction)
	s.player.Stamina = math.Max(0, math.Min(snap.Player.Stamina, s.player.MaxStamina))
	s.player.Place(snap.Player.X, snap.Player.Y, w, h)
	s.afterPlacement()
	s.notices = nil
	s.persistInventory()
	s.persistQuests()
	s.persist(map[string]any{"zoom": s.zoom})
	logger.Log.WithFields(logrus.Fields{
		"world": snap.WorldName,
		"map":   snap.MapFileName,
	}).Info("restored snapshot")
	return nil
}

// Accessors used by front ends.

func (s *Session) World() types.World              { return s.world }
func (s *Session) MapMeta() types.MapMeta          { return s.mapMeta }
func (s *Session) Map() *types.Map                 { return s.gameMap }
func (s *Session) Grid() *collision.Grid           { return s.grid }
func (s *Session) Player() player.Player           { return *s.player }
func (s *Session) Camera() camera.Camera           { return s.cam }
func (s *Session) NPCs() []types.NPC               { return s.npcs.Active() }
func (s *Session) Nearby() (types.NPC, bool)       { return s.npcs.Nearby() }
func (s *Session) Dialogue() *dialogue.Engine      { return s.dialogue }
func (s *Session) Combat() *combat.Session         { return s.combat }
func (s *Session) Quests() *quest.Tracker          { return s.quests }
func (s *Session) Inventory() *inventory.Inventory { return s.inv }
func (s *Session) Catalog() *catalog.Catalog       { return s.cat }
func (s *Session) Clock() time.Duration            { return s.sched.Now() }

// Character returns the selected avatar, if any.
func (s *Session) Character() (types.Character, bool) {
	if s.character == nil {
		return types.Character{}, false
	}
	return *s.character, true
}
