// Package cli drives a Session from line-oriented text commands. It backs
// the --plain and --script modes.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/amgis/engine"
	"github.com/nathoo/amgis/engine/combat"
	"github.com/nathoo/amgis/engine/dialogue"
	"github.com/nathoo/amgis/engine/errs"
	"github.com/nathoo/amgis/engine/inventory"
	"github.com/nathoo/amgis/engine/player"
	"github.com/nathoo/amgis/storage"
	"github.com/nathoo/amgis/types"
)

// Frame is the simulated frame length used when time is advanced.
const Frame = time.Second / 60

// DefaultStep is how long a bare walk command holds its direction.
const DefaultStep = 250 * time.Millisecond

// CLI handles line-based interaction with the player.
type CLI struct {
	Session   *engine.Session
	Store     *storage.Store // optional; enables /save and /load
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
	Now       func() time.Time
	lastCmd   string
	logMark   int
}

// New creates a CLI wired to the given session.
func New(s *engine.Session, store *storage.Store) *CLI {
	return &CLI{
		Session: s,
		Store:   store,
		In:      os.Stdin,
		Out:     os.Stdout,
		Now:     time.Now,
	}
}

// Run loops: prompt, input, dispatch, output. It returns on /quit or EOF.
func (c *CLI) Run() {
	c.printLine("Amgis. Type /help for commands.")
	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}
		if c.Line(input) {
			return
		}
	}
}

// Line handles one input line, meta or game command, and prints what
// happened. It returns true if the game should exit.
func (c *CLI) Line(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, "/") {
		return c.handleMeta(input)
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if c.lastCmd == "" {
			c.printLine("Nothing to repeat.")
			return false
		}
		input = c.lastCmd
	} else {
		c.lastCmd = input
	}

	if err := c.Exec(Parse(input)); err != nil {
		c.printSystem(Describe(err))
	}
	c.flush()
	return false
}

// Flush prints anything that happened outside Exec, such as combat turns
// and quest notices raised by the frame clock.
func (c *CLI) Flush() {
	c.flush()
}

// Exec runs one game command.
func (c *CLI) Exec(cmd Command) error {
	s := c.Session
	switch cmd.Verb {
	case "":
		return nil
	case "worlds":
		return c.cmdWorlds()
	case "maps":
		return c.cmdMaps(cmd.Arg(0))
	case "characters":
		for _, ch := range s.Catalog().Characters {
			c.printLine(fmt.Sprintf("  %s (%s) %s", ch.Name, ch.Gender, ch.File))
		}
		return nil
	case "select":
		if err := s.SelectCharacter(cmd.Arg(0)); err != nil {
			return err
		}
		ch, _ := s.Character()
		c.printLine("Playing as " + ch.Name + ".")
		return nil
	case "enter":
		if len(cmd.Args) < 2 {
			return errs.Precondition("usage: enter <world> <map file>")
		}
		if err := s.EnterMap(cmd.Args[0], cmd.Args[1]); err != nil {
			return err
		}
		c.cmdLook()
		return nil
	case "look":
		c.cmdLook()
		return nil
	case "walk", "sprint":
		return c.cmdWalk(cmd)
	case "rest":
		return c.hold(player.Rest, cmd.Arg(0), time.Second)
	case "wait":
		d, err := parseDuration(cmd.Arg(0), time.Second)
		if err != nil {
			return err
		}
		c.advance(d)
		return nil
	case "talk":
		if err := s.Interact(); err != nil {
			return err
		}
		c.showDialogue()
		return nil
	case "choose":
		n, err := strconv.Atoi(cmd.Arg(0))
		if err != nil {
			return errs.Precondition("usage: choose <number>")
		}
		if err := s.Choose(n - 1); err != nil {
			return err
		}
		c.showDialogue()
		return nil
	case "bye":
		s.CloseDialogue()
		return nil
	case "inventory":
		c.cmdInventory()
		return nil
	case "equip":
		return c.withItem(cmd, s.Equip, "Equipped")
	case "unequip":
		return s.Unequip(types.Slot(strings.ToLower(cmd.Arg(0))))
	case "use":
		healed, err := s.UseItem(cmd.Arg(0))
		if err != nil {
			return err
		}
		if healed == 0 {
			c.printLine("Used " + cmd.Arg(0) + ".")
		}
		return nil
	case "quests":
		c.cmdQuests()
		return nil
	case "track":
		return s.SetTracked(cmd.Arg(0))
	case "fight":
		if err := s.StartEncounter(cmd.Arg(0)); err != nil {
			return err
		}
		e := s.Combat().Enemy()
		c.printLine(fmt.Sprintf("%s, %s. Threat: %s.", e.Name, e.Rank, e.Threat))
		return nil
	case "attack":
		return c.combatTurn(s.Attack)
	case "defend":
		return c.combatTurn(s.Defend)
	case "retreat":
		return s.Retreat()
	case "continue":
		return s.Continue()
	case "zoom":
		return c.cmdZoom(cmd.Arg(0))
	}
	return errs.Precondition("unknown command %q", cmd.Verb)
}

func (c *CLI) cmdWorlds() error {
	worlds, err := c.Session.Worlds()
	if err != nil {
		return err
	}
	for _, w := range worlds {
		c.printLine(fmt.Sprintf("  %d. %s [%s, %s] %s", w.ID, w.Name, w.Difficulty, w.Biome, w.Summary))
	}
	return nil
}

func (c *CLI) cmdMaps(world string) error {
	maps, err := c.Session.Maps(world)
	if err != nil {
		return err
	}
	for _, m := range maps {
		c.printLine(fmt.Sprintf("  %d. %s (%s) %dx%d [%s, threat %s]", m.ID, m.Name, m.FileName, m.Width, m.Height, m.Difficulty, m.Threat))
	}
	return nil
}

func (c *CLI) cmdWalk(cmd Command) error {
	dir, ok := directionExpansions[strings.ToLower(cmd.Arg(0))]
	if !ok {
		return errs.Precondition("usage: %s <direction> [seconds]", cmd.Verb)
	}
	intent := map[string]player.Intent{
		"up": player.MoveUp, "down": player.MoveDown,
		"left": player.MoveLeft, "right": player.MoveRight,
	}[dir]
	d, err := parseDuration(cmd.Arg(1), DefaultStep)
	if err != nil {
		return err
	}
	s := c.Session
	if s.Mode() != engine.ModeExplore {
		return errs.Precondition("cannot move while in %s", s.Mode())
	}
	s.Press(intent)
	if cmd.Verb == "sprint" {
		s.Press(player.Sprint)
	}
	c.advance(d)
	s.ReleaseAll()
	p := s.Player()
	c.printLine(fmt.Sprintf("You are at (%.0f, %.0f) facing %s. Stamina %.0f.", p.X, p.Y, p.Direction, p.Stamina))
	return nil
}

func (c *CLI) hold(in player.Intent, arg string, def time.Duration) error {
	d, err := parseDuration(arg, def)
	if err != nil {
		return err
	}
	if !c.Session.Press(in) {
		return errs.Precondition("cannot do that while in %s", c.Session.Mode())
	}
	c.advance(d)
	c.Session.ReleaseAll()
	c.printLine(fmt.Sprintf("Stamina %.0f.", c.Session.Player().Stamina))
	return nil
}

func (c *CLI) advance(d time.Duration) {
	for ; d > 0; d -= Frame {
		c.Session.Tick(min(d, Frame))
	}
}

func (c *CLI) combatTurn(act func() error) error {
	if err := act(); err != nil {
		return err
	}
	if c.Session.Combat().State() == combat.EnemyTurn {
		c.advance(combat.EnemyTurnDelay)
	}
	return nil
}

func (c *CLI) cmdLook() {
	s := c.Session
	if s.Map() == nil {
		c.printLine("You have not entered a world yet. Try: worlds, maps <world>, enter <world> <map>.")
		return
	}
	meta := s.MapMeta()
	p := s.Player()
	c.printLine(fmt.Sprintf("%s, %s. %s", meta.Name, s.World().Name, meta.Summary))
	c.printLine(fmt.Sprintf("Weather: %s. Difficulty: %s. Threat: %s.", meta.Weather, meta.Difficulty, meta.Threat))
	c.printLine(fmt.Sprintf("You are at (%.0f, %.0f) facing %s. Stamina %.0f/%.0f.", p.X, p.Y, p.Direction, p.Stamina, p.MaxStamina))
	if n, ok := s.Nearby(); ok {
		c.printLine(fmt.Sprintf("%s is close enough to talk to.", n.Name))
	}
	if q, ok := s.Quests().Tracked(); ok {
		if o, ok := s.Quests().NextObjective(q.ID); ok {
			c.printLine(fmt.Sprintf("Tracking: %s. Next: %s", q.Name, o.Description))
		} else {
			c.printLine("Tracking: " + q.Name)
		}
	}
}

func (c *CLI) showDialogue() {
	d := c.Session.Dialogue()
	node, ok := d.Current()
	if !ok {
		c.printLine("The conversation ends.")
		return
	}
	speaker := node.Speaker
	if speaker == "" {
		speaker = d.NPC().Name
	}
	c.printLine(fmt.Sprintf("%s: %s", speaker, node.Text))
	for i, ch := range dialogue.Choices(node) {
		c.printLine(fmt.Sprintf("  %d. %s", i+1, ch.Label))
	}
}

func (c *CLI) cmdInventory() {
	inv := c.Session.Inventory()
	entries := inv.Entries()
	if len(entries) == 0 {
		c.printLine("You carry nothing.")
	}
	for _, e := range entries {
		it, _ := c.Session.Catalog().Item(e.ID)
		c.printLine(fmt.Sprintf("  %s x%d (%s)", it.Name, e.Quantity, it.ID))
	}
	for _, slot := range inventory.Slots {
		id := inv.Equipped(slot)
		if id == "" {
			id = "-"
		}
		c.printLine(fmt.Sprintf("  %s: %s", slot, id))
	}
}

func (c *CLI) withItem(cmd Command, fn func(string) error, verb string) error {
	id := cmd.Arg(0)
	if err := fn(id); err != nil {
		return err
	}
	c.printLine(verb + " " + id + ".")
	return nil
}

func (c *CLI) cmdQuests() {
	qt := c.Session.Quests()
	tracked, _ := qt.Tracked()
	for _, q := range qt.Quests() {
		mark := " "
		if q.ID == tracked.ID {
			mark = "*"
		}
		c.printLine(fmt.Sprintf(" %s %s [%s]", mark, q.Name, qt.Status(q.ID)))
		for _, o := range q.Objectives {
			box := "[ ]"
			if qt.IsComplete(q.ID, o.ID) {
				box = "[x]"
			}
			c.printLine(fmt.Sprintf("     %s %s", box, o.Description))
		}
	}
}

func (c *CLI) cmdZoom(arg string) error {
	s := c.Session
	var z float64
	switch arg {
	case "in", "+":
		z = s.ZoomBy(1)
	case "out", "-":
		z = s.ZoomBy(-1)
	case "reset", "0":
		z = s.SetZoom(1)
	default:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return errs.Precondition("usage: zoom in|out|reset|<level>")
		}
		z = s.SetZoom(v)
	}
	c.printLine(fmt.Sprintf("Zoom %.2fx.", z))
	return nil
}

// flush prints notices and new combat log lines.
func (c *CLI) flush() {
	msgs, mark := c.Session.Combat().LogSince(c.logMark)
	c.logMark = mark
	for _, m := range msgs {
		c.printLine(m)
	}
	for _, n := range c.Session.DrainNotices() {
		c.printSystem(n)
	}
	if c.Trace {
		c.printTrace()
	}
}

func (c *CLI) printTrace() {
	s := c.Session
	p := s.Player()
	c.printSystem(fmt.Sprintf("[trace] mode=%s clock=%s pos=(%.2f,%.2f) stamina=%.2f camera=%+v",
		s.Mode(), s.Clock(), p.X, p.Y, p.Stamina, s.Camera()))
	if s.Combat().Active() {
		pl, en := s.Combat().Player(), s.Combat().Enemy()
		c.printSystem(fmt.Sprintf("[trace] combat=%s %s hp=%d/%d vs %s hp=%d/%d",
			s.Combat().ID(), s.Combat().State(), pl.HP, pl.MaxHP, en.Name, en.HP, en.MaxHP))
	}
}

// handleMeta dispatches meta-commands. It returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true
	case "/save":
		c.cmdSave(arg)
	case "/load":
		c.cmdLoad(arg)
	case "/continue":
		c.cmdContinue()
	case "/slots":
		c.cmdSlots()
	case "/help":
		c.cmdHelp()
	case "/state":
		c.trace()
	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}
	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return false
}

func (c *CLI) trace() {
	was := c.Trace
	c.Trace = true
	c.printTrace()
	c.Trace = was
}

func (c *CLI) cmdSave(slot string) {
	if c.Store == nil {
		c.printSystem("Saving is disabled.")
		return
	}
	if slot == "" {
		slot = storage.Slots[0].ID
	}
	snap, err := c.Session.Capture(c.Now())
	if err == nil {
		err = c.Store.SaveSlot(slot, snap)
	}
	if err != nil {
		c.printSystem("Save failed: " + Describe(err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", slot))
}

func (c *CLI) cmdLoad(slot string) {
	if c.Store == nil {
		c.printSystem("Loading is disabled.")
		return
	}
	if slot == "" {
		slot = storage.Slots[0].ID
	}
	snap, err := c.Store.LoadSlot(slot)
	if err == nil {
		err = c.Session.Restore(snap)
	}
	if err != nil {
		c.printSystem("Load failed: " + Describe(err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s.", slot))
	c.cmdLook()
}

func (c *CLI) cmdContinue() {
	if c.Store == nil {
		c.printSystem("Loading is disabled.")
		return
	}
	snap, slot, err := c.Store.Latest()
	if err == nil {
		err = c.Session.Restore(snap)
	}
	if err != nil {
		c.printSystem("Continue failed: " + Describe(err))
		return
	}
	c.printSystem(fmt.Sprintf("Continuing from %s.", slot))
	c.cmdLook()
}

func (c *CLI) cmdSlots() {
	if c.Store == nil {
		c.printSystem("Saving is disabled.")
		return
	}
	infos, err := c.Store.ListSaves()
	if err != nil {
		c.printSystem(Describe(err))
		return
	}
	for _, in := range infos {
		if !in.Exists {
			c.printLine(fmt.Sprintf("  %s (%s): empty", in.Label, in.ID))
			continue
		}
		c.printLine(fmt.Sprintf("  %s (%s): %s, %s as %s, %s", in.Label, in.ID,
			in.WorldName, in.MapName, in.CharacterName, in.SavedAt.Format(time.RFC822)))
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [slot]   Save game (slot-1, slot-2, slot-3)",
		"  /load [slot]   Load game",
		"  /continue      Load the most recent save",
		"  /slots         List save slots",
		"  /quit          Exit game",
		"  /help          Show this help",
		"  /state         Dump session state",
		"  /trace         Toggle state output after every command",
		"",
		"Game commands:",
		"  worlds | maps <world> | characters | select <file>",
		"  enter <world> <map file>     Travel to a map",
		"  look (l)                     Describe surroundings",
		"  walk <dir> [s] (n/s/e/w)     Walk for a while",
		"  sprint <dir> [s]             Sprint while stamina lasts",
		"  rest [s] | wait [s]          Recover stamina or let time pass",
		"  talk | choose <n> | bye      Talk to the nearest NPC",
		"  inventory (i) | equip <id> | unequip <slot> | use <id>",
		"  quests (q) | track <quest>",
		"  fight [enemy] | attack | defend | retreat | continue",
		"  zoom in|out|reset|<level>",
		"  again (g)                    Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

// Describe turns an error into a player-facing line.
func Describe(err error) string {
	switch {
	case errors.Is(err, errs.ErrPrecondition):
		return strings.TrimSuffix(err.Error(), ": "+errs.ErrPrecondition.Error())
	}
	return err.Error()
}

func parseDuration(arg string, def time.Duration) (time.Duration, error) {
	if arg == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(arg, 64)
	if err != nil || secs < 0 {
		return 0, errs.Precondition("invalid duration %q", arg)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
