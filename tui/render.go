package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/amgis/engine"
	"github.com/nathoo/amgis/engine/dialogue"
	"github.com/nathoo/amgis/engine/inventory"
	"github.com/nathoo/amgis/engine/player"
	"github.com/nathoo/amgis/types"
)

// cellWidth is how many terminal columns one map cell takes. Terminal
// cells are roughly twice as tall as wide.
const cellWidth = 2

type cellKind int

const (
	cellFloor cellKind = iota
	cellWall
	cellPlayer
	cellNPC
	cellNearby
)

var cellStyles = map[cellKind]lipgloss.Style{
	cellFloor:  styleFloor,
	cellWall:   styleWall,
	cellPlayer: stylePlayer,
	cellNPC:    styleNPC,
	cellNearby: styleNearby,
}

type mark struct {
	kind  cellKind
	glyph string
}

func playerGlyph(d player.Direction) string {
	switch d {
	case player.Up:
		return "@^"
	case player.Left:
		return "<@"
	case player.Right:
		return "@>"
	}
	return "@v"
}

func npcGlyph(n types.NPC) string {
	r := []rune(n.Name)
	if len(r) == 0 {
		r = []rune(n.ID)
	}
	if len(r) == 0 {
		return "??"
	}
	return strings.ToUpper(string(r[0])) + " "
}

// renderMap draws the part of the collision grid inside the camera as
// cols x rows cells, with NPCs and the player on top.
func renderMap(s *engine.Session, cols, rows int) string {
	g := s.Grid()
	if g == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	cam := s.Camera()
	sx := cam.Width / float64(cols)
	sy := cam.Height / float64(rows)

	marks := make(map[[2]int]mark)
	place := func(x, y float64, m mark) {
		if !cam.Visible(x, y, 0) {
			return
		}
		c, r := int((x-cam.X)/sx), int((y-cam.Y)/sy)
		if c >= cols {
			c = cols - 1
		}
		if r >= rows {
			r = rows - 1
		}
		marks[[2]int{c, r}] = m
	}

	near, hasNear := s.Nearby()
	for _, n := range s.NPCs() {
		kind := cellNPC
		if hasNear && n.ID == near.ID {
			kind = cellNearby
		}
		place(n.Position.X, n.Position.Y, mark{kind: kind, glyph: npcGlyph(n)})
	}
	if p := s.Player(); p.Spawned {
		place(p.X, p.Y, mark{kind: cellPlayer, glyph: playerGlyph(p.Direction)})
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		// Consecutive cells of one kind are rendered as a single run.
		var run strings.Builder
		runKind := cellKind(-1)
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(cellStyles[runKind].Render(run.String()))
				run.Reset()
			}
		}
		wy := cam.Y + (float64(r)+0.5)*sy
		row := int(wy) / g.TileHeight
		for c := 0; c < cols; c++ {
			m, ok := marks[[2]int{c, r}]
			if !ok {
				wx := cam.X + (float64(c)+0.5)*sx
				if g.IsBlocked(int(wx)/g.TileWidth, row) {
					m = mark{kind: cellWall, glyph: "##"}
				} else {
					m = mark{kind: cellFloor, glyph: ". "}
				}
			}
			if m.kind != runKind {
				flush()
				runKind = m.kind
			}
			run.WriteString(m.glyph)
		}
		flush()
	}
	return b.String()
}

func panelTitle(title string) string {
	return stylePanelTitle.Render(title)
}

// renderDialogue shows the open conversation node and its choices.
func renderDialogue(s *engine.Session) string {
	d := s.Dialogue()
	node, ok := d.Current()
	if !ok {
		return ""
	}
	lines := []string{
		panelTitle(d.NPC().Name),
		styleDialogue.Render(node.Text),
		"",
	}
	for i, ch := range dialogue.Choices(node) {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, ch.Label))
	}
	lines = append(lines, styleSystem.Render("1-9 choose, esc leave"))
	return strings.Join(lines, "\n")
}

// inventoryRows lists the stacks in display order, the one the cursor
// selects by index.
func inventoryRows(s *engine.Session) []inventory.Entry {
	return s.Inventory().Entries()
}

// renderInventory shows equipment slots and stacks. The cursor row is
// highlighted.
func renderInventory(s *engine.Session, cursor int) string {
	inv := s.Inventory()
	cat := s.Catalog()

	var slots []string
	for _, slot := range inventory.Slots {
		name := "-"
		if id := inv.Equipped(slot); id != "" {
			name = itemName(cat.Item, id)
		}
		slots = append(slots, fmt.Sprintf("%s: %s", slot, name))
	}
	lines := []string{panelTitle("Inventory"), styleSystem.Render(strings.Join(slots, "  ")), ""}

	rows := inventoryRows(s)
	if len(rows) == 0 {
		lines = append(lines, "  (empty)")
	}
	for i, e := range rows {
		line := fmt.Sprintf("%-20s x%d", itemName(cat.Item, e.ID), e.Quantity)
		if it, ok := cat.Item(e.ID); ok {
			line += "  " + describeItem(it)
			if it.Slot != "" && inv.Equipped(it.Slot) == it.ID {
				line += " (equipped)"
			}
		}
		if i == cursor {
			line = styleSelected.Render(line)
		}
		lines = append(lines, "  "+line)
	}
	lines = append(lines, styleSystem.Render("enter equip/use, esc close"))
	return strings.Join(lines, "\n")
}

func itemName(lookup func(string) (types.Item, bool), id string) string {
	if it, ok := lookup(id); ok && it.Name != "" {
		return it.Name
	}
	return id
}

func describeItem(it types.Item) string {
	if it.Type == types.ItemConsumable {
		return fmt.Sprintf("heals %d", it.HealAmount)
	}
	var parts []string
	for _, b := range []struct {
		label string
		v     int
	}{
		{"atk", it.AttackBonus}, {"def", it.DefenseBonus}, {"spd", it.SpeedBonus},
		{"hp", it.MaxHPBonus}, {"move", it.MovementBonus},
	} {
		if b.v != 0 {
			parts = append(parts, fmt.Sprintf("%s%+d", b.label, b.v))
		}
	}
	return strings.Join(parts, " ")
}

// renderQuestLog shows each quest with its objectives. The cursor row is
// highlighted and the tracked quest starred.
func renderQuestLog(s *engine.Session, cursor int) string {
	t := s.Quests()
	tracked, _ := t.Tracked()
	lines := []string{panelTitle("Quests")}
	for i, q := range t.Quests() {
		star := " "
		if q.ID == tracked.ID {
			star = "*"
		}
		head := fmt.Sprintf("%s %s (%s)", star, questTitle(q.Name, q.ID), t.Status(q.ID))
		if i == cursor {
			head = styleSelected.Render(head)
		}
		lines = append(lines, head)
		for _, o := range q.Objectives {
			line := "    [ ] " + objectiveText(o)
			if t.IsComplete(q.ID, o.ID) {
				line = styleDone.Render("    [x] " + objectiveText(o))
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, styleSystem.Render("enter track, esc close"))
	return strings.Join(lines, "\n")
}

func objectiveText(o types.Objective) string {
	if o.Description != "" {
		return o.Description
	}
	return o.ID
}

// renderCombat shows both combatants and the newest log lines.
func renderCombat(s *engine.Session, logLines int) string {
	c := s.Combat()
	pl, en := c.Player(), c.Enemy()
	guard := ""
	if c.GuardActive() {
		guard = " (guarding)"
	}
	lines := []string{
		panelTitle(fmt.Sprintf("%s vs %s", pl.Name, en.Name)) + styleSystem.Render("  "+string(c.State())),
		fmt.Sprintf("%-12s %s%s", pl.Name, hpBar(pl.HP, pl.MaxHP), guard),
		fmt.Sprintf("%-12s %s", en.Name, hpBar(en.HP, en.MaxHP)),
		"",
	}
	log := c.Log()
	if len(log) > logLines {
		log = log[:logLines]
	}
	for i := len(log) - 1; i >= 0; i-- {
		lines = append(lines, styleText.Render(log[i]))
	}
	return strings.Join(lines, "\n")
}

func hpBar(hp, maxHP int) string {
	const width = 20
	filled := 0
	if maxHP > 0 {
		filled = min(width, max(0, hp*width/maxHP))
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	style := styleHPHigh
	if filled*4 < width {
		style = styleHPLow
	}
	return style.Render("["+bar+"]") + fmt.Sprintf(" %d/%d", hp, maxHP)
}
