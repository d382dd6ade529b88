package engine

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/nathoo/amgis/catalog"
	"github.com/nathoo/amgis/engine/combat"
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/mapdata"
	"github.com/nathoo/amgis/engine/player"
	"github.com/nathoo/amgis/logger"
	"github.com/nathoo/amgis/types"
)

func init() { logger.Silence() }

func legacyGround(cols, rows int) string {
	tiles := strings.TrimSuffix(strings.Repeat("1,", cols*rows), ",")
	return "0|ground|32|32|" + strconv.Itoa(cols) + "|" + strconv.Itoa(rows) + "|" + tiles
}

func worldFS() fstest.MapFS {
	return fstest.MapFS{
		"Worlds.wrld":                {Data: []byte("1|Aethelgard|Moderate\n")},
		"Aethelgard/Aethelgard.maps": {Data: []byte("1|meadow.map|320|256|48|48|Easy|Low\n2|ridge.map|320|256\n")},
		"Aethelgard/meadow.map":      {Data: []byte(legacyGround(10, 8))},
		"Aethelgard/ridge.map":       {Data: []byte(legacyGround(10, 8))},
	}
}

func fptr(v float64) *float64 { return &v }

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]types.Enemy{{ID: "golem", Name: "Golem", HP: 1000, Attack: 5, Defense: 2, Speed: 3}},
		[]types.NPC{{
			ID: "elder", Name: "Elder", World: "Aethelgard", Map: "meadow.map",
			Position: types.Point{X: 80, Y: 48},
			Dialogue: []types.DialogueNode{
				{ID: "root", Text: "Hello.", Choices: []types.DialogueChoice{{Label: "Gate?", Next: "gate"}}},
				{ID: "gate", Text: "East."},
			},
		}},
		[]types.Item{
			{ID: "blade", Name: "Blade", Type: types.ItemEquipment, Slot: types.SlotWeapon, AttackBonus: 4, StarterQuantity: 1},
			{ID: "boots", Name: "Boots", Type: types.ItemEquipment, Slot: types.SlotAccessory, MovementBonus: 40},
			{ID: "tonic", Name: "Tonic", Type: types.ItemConsumable, HealAmount: 20, StarterQuantity: 1},
		},
		[]types.Quest{
			{ID: "talk", Name: "Ask Around", Objectives: []types.Objective{
				{ID: "ask", Type: types.ObjectiveDialogue, NPCID: "elder", NodeID: "gate", Description: "Ask about the gate"},
			}},
			{ID: "walk", Name: "East Gate", Objectives: []types.Objective{
				{ID: "reach", Type: types.ObjectiveLocation, World: "Aethelgard", Map: "meadow.map", X: fptr(200), Y: fptr(48), Radius: 20},
			}, Rewards: types.QuestRewards{Items: []types.ItemGrant{{ID: "boots"}}}},
		},
		[]types.Character{{Name: "Ash", Gender: "Ranger", File: "Characters/ash.png"}},
	)
}

type recordingSettings struct{ patches []map[string]any }

func (r *recordingSettings) SaveSettings(patch map[string]any) error {
	r.patches = append(r.patches, patch)
	return nil
}

func (r *recordingSettings) saw(key string) bool {
	for _, p := range r.patches {
		if _, ok := p[key]; ok {
			return true
		}
	}
	return false
}

func newSession(t *testing.T) (*Session, *recordingSettings) {
	t.Helper()
	rec := &recordingSettings{}
	s := New(mapdata.NewRepositoryFS(worldFS()), testCatalog(), Options{Seed: 7, Settings: rec})
	if err := s.EnterMap("Aethelgard", "meadow.map"); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	return s, rec
}

func walk(s *Session, in player.Intent, ticks int) {
	s.Press(in)
	for i := 0; i < ticks; i++ {
		s.Tick(100 * time.Millisecond)
	}
	s.Release(in)
}

func TestEnterMap(t *testing.T) {
	s, _ := newSession(t)
	p := s.Player()
	if !p.Spawned || p.X != 48 || p.Y != 48 {
		t.Errorf("player at (%v,%v) spawned=%v, want list spawn (48,48)", p.X, p.Y, p.Spawned)
	}
	if s.Mode() != ModeExplore {
		t.Errorf("mode = %s", s.Mode())
	}
	if ch, ok := s.Character(); !ok || ch.Name != "Ash" {
		t.Error("first character should be selected automatically")
	}
	if _, ok := s.Nearby(); !ok {
		t.Error("elder should be in range at spawn")
	}
	if s.Map().Difficulty != "Easy" {
		t.Error("map list metadata not applied")
	}

	if err := s.EnterMap("Nowhere", "meadow.map"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown world: got %v", err)
	}
	if err := s.EnterMap("Aethelgard", "missing.map"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown map: got %v", err)
	}
	if s.Map().FileName != "meadow.map" {
		t.Error("failed EnterMap must not change the loaded map")
	}
}

func TestEnterMap_CentreWithoutSpawn(t *testing.T) {
	s, _ := newSession(t)
	if err := s.EnterMap("Aethelgard", "ridge.map"); err != nil {
		t.Fatal(err)
	}
	if p := s.Player(); p.X != 160 || p.Y != 128 {
		t.Errorf("player at (%v,%v), want map centre", p.X, p.Y)
	}
	if len(s.NPCs()) != 0 {
		t.Error("NPCs of another map should not be active")
	}
}

func TestTick_Moves(t *testing.T) {
	s, _ := newSession(t)
	walk(s, player.MoveRight, 1)
	if p := s.Player(); p.X != 64 || p.Direction != player.Right {
		t.Errorf("after one tick: x=%v dir=%s", p.X, p.Direction)
	}
}

func TestOverlaysFreezeMovement(t *testing.T) {
	s, _ := newSession(t)
	if !s.ToggleInventory() {
		t.Fatal("inventory should open")
	}
	if s.Press(player.MoveRight) {
		t.Error("intents must be ignored while the inventory is open")
	}
	s.Tick(time.Second)
	if s.Player().X != 48 {
		t.Error("player moved behind an overlay")
	}
	if !s.Dismiss() || s.Mode() != ModeExplore {
		t.Error("dismiss should close the inventory")
	}
}

func TestDialogueCompletesObjective(t *testing.T) {
	s, rec := newSession(t)
	if err := s.Interact(); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if s.Mode() != ModeDialogue {
		t.Fatalf("mode = %s", s.Mode())
	}
	if err := s.Choose(0); err != nil {
		t.Fatal(err)
	}
	if s.Quests().Status("talk") != types.QuestCompleted {
		t.Error("reaching the gate node should complete the quest")
	}
	if !rec.saw("quests") {
		t.Error("quest progress was not persisted")
	}
	notices := s.DrainNotices()
	if len(notices) == 0 || notices[len(notices)-1] != "Quest complete: Ask Around" {
		t.Errorf("notices = %q", notices)
	}
}

func TestLocationQuestGrantsReward(t *testing.T) {
	s, rec := newSession(t)
	walk(s, player.MoveRight, 10)
	if s.Quests().Status("walk") != types.QuestCompleted {
		t.Fatalf("quest not completed, player at x=%v", s.Player().X)
	}
	if s.Inventory().Quantity("boots") != 1 {
		t.Error("reward defaults to quantity 1")
	}
	if !rec.saw("inventory") {
		t.Error("granted reward was not persisted")
	}
}

func TestEquipChangesSpeed(t *testing.T) {
	s, _ := newSession(t)
	s.Inventory().Add("boots", 1)
	if err := s.Equip("boots"); err != nil {
		t.Fatal(err)
	}
	if s.Player().Speed != player.BaseSpeed+40 {
		t.Errorf("speed = %v", s.Player().Speed)
	}
	if err := s.Unequip(types.SlotAccessory); err != nil || s.Player().Speed != player.BaseSpeed {
		t.Errorf("unequip: %v, speed %v", err, s.Player().Speed)
	}
}

func TestStaleEnemyTurnIsDropped(t *testing.T) {
	s, _ := newSession(t)
	if err := s.StartEncounter("golem"); err != nil {
		t.Fatal(err)
	}
	if err := s.Attack(); err != nil {
		t.Fatal(err)
	}
	if s.Combat().State() != combat.EnemyTurn {
		t.Fatalf("state = %s", s.Combat().State())
	}
	hp := s.Combat().Player().HP
	s.ReturnToExploration()
	s.Tick(time.Second)
	if s.Combat().State() != combat.Idle || s.Mode() != ModeExplore {
		t.Errorf("state = %s, mode = %s", s.Combat().State(), s.Mode())
	}
	if s.Combat().Player().HP != hp {
		t.Error("enemy struck after the encounter ended")
	}
}

func TestCombatSuspendsMovement(t *testing.T) {
	s, _ := newSession(t)
	s.StartEncounter("")
	if s.Press(player.MoveRight) {
		t.Error("intents should be ignored in combat")
	}
	s.Tick(time.Second)
	if s.Player().X != 48 {
		t.Error("player moved during combat")
	}
	if err := s.StartEncounter("golem"); !errors.Is(err, errs.ErrPrecondition) {
		t.Errorf("second encounter: got %v", err)
	}
}

func TestUseItemHealsInCombat(t *testing.T) {
	s, _ := newSession(t)
	s.StartEncounter("golem")
	s.Attack()
	s.Tick(time.Second) // enemy turn
	if _, err := s.UseItem("tonic"); err != nil {
		t.Fatal(err)
	}
	if s.Inventory().Quantity("tonic") != 0 {
		t.Error("tonic not consumed")
	}
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	s, _ := newSession(t)
	walk(s, player.MoveRight, 2)
	s.Equip("blade")
	s.ZoomBy(1)
	now := time.UnixMilli(1_700_000_000_000)

	snap, err := s.Capture(now)
	if err != nil {
		t.Fatal(err)
	}
	other := New(mapdata.NewRepositoryFS(worldFS()), testCatalog(), Options{Seed: 1})
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	again, err := other.Capture(now)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snap, again) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", again, snap)
	}
}

func TestRestore_FailureLeavesStateUntouched(t *testing.T) {
	s, _ := newSession(t)
	walk(s, player.MoveRight, 1)
	before, _ := s.Capture(time.UnixMilli(0))

	bad := *before
	bad.MapFileName = "missing.map"
	bad.Inventory.Items = nil
	if err := s.Restore(&bad); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
	badChar := *before
	badChar.CharacterPath = "Characters/nobody.png"
	if err := s.Restore(&badChar); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("got %v", err)
	}

	after, _ := s.Capture(time.UnixMilli(0))
	if !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after failed restore:\n got %+v\nwant %+v", after, before)
	}
}

func TestCapture_BeforeSpawn(t *testing.T) {
	s := New(mapdata.NewRepositoryFS(worldFS()), testCatalog(), Options{})
	if _, err := s.Capture(time.Now()); !errors.Is(err, errs.ErrPrecondition) {
		t.Errorf("got %v", err)
	}
	if s.Mode() != ModeSetup {
		t.Errorf("mode = %s", s.Mode())
	}
}

func TestCapture_WithoutCharacter(t *testing.T) {
	full := testCatalog()
	cat := catalog.New(full.Enemies, full.NPCs, full.Items, full.Quests, nil)
	s := New(mapdata.NewRepositoryFS(worldFS()), cat, Options{Seed: 7})
	if err := s.EnterMap("Aethelgard", "meadow.map"); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if _, ok := s.Character(); ok {
		t.Fatal("no character should be selected")
	}
	snap, err := s.Capture(time.UnixMilli(0))
	if !errors.Is(err, errs.ErrPrecondition) {
		t.Fatalf("got %v", err)
	}
	if snap != nil {
		t.Errorf("expected no snapshot, got %+v", snap)
	}
}

func TestRestore_LeavesArgumentUntouched(t *testing.T) {
	s, _ := newSession(t)
	snap, err := s.Capture(time.UnixMilli(0))
	if err != nil {
		t.Fatal(err)
	}
	snap.Inventory.Items = nil
	snap.Inventory.Equipment = nil
	snap.Quests.Progress = nil
	snap.Player.Direction = ""
	want := *snap

	if err := s.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(*snap, want) {
		t.Errorf("snapshot changed by restore:\n got %+v\nwant %+v", *snap, want)
	}

	snap.MapFileName = "missing.map"
	want = *snap
	if err := s.Restore(snap); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
	if !reflect.DeepEqual(*snap, want) {
		t.Errorf("snapshot changed by failed restore:\n got %+v\nwant %+v", *snap, want)
	}
}

func TestZoom(t *testing.T) {
	s, rec := newSession(t)
	if z := s.ZoomBy(1); z != 1.25 {
		t.Errorf("zoom = %v", z)
	}
	if z := s.SetZoom(10); z != 2.5 {
		t.Errorf("zoom clamp = %v", z)
	}
	if !rec.saw("zoom") {
		t.Error("zoom not persisted")
	}
	s.Resize(400, 300)
	if c := s.Camera(); c.Width != 160 || c.Height != 120 {
		t.Errorf("camera = %vx%v, want 160x120", c.Width, c.Height)
	}
}
