// Package tui provides a Bubble Tea terminal UI for an Amgis session: a
// tile view driven by a frame clock, overlay panels and a command prompt.
package tui

import (
	"bytes"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/amgis/cli"
	"github.com/nathoo/amgis/engine"
	"github.com/nathoo/amgis/engine/player"
	"github.com/nathoo/amgis/storage"
	"github.com/nathoo/amgis/types"
)

// holdWindow is how long a movement key stays held after its last press.
// It covers the gap between terminal auto-repeat events.
const holdWindow = 180 * time.Millisecond

// maxFrame caps the time one frame may advance after a stall.
const maxFrame = 250 * time.Millisecond

const (
	panelRows  = 8 // content lines of the bottom panel
	chromeRows = panelRows + 2 + 2
)

// rawLine stores an unstyled log line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // true for echoed prompt input
}

// frameMsg is one tick of the frame clock.
type frameMsg time.Time

// Model is the Bubble Tea model for the game screen.
type Model struct {
	session *engine.Session
	cmd     *cli.CLI
	out     *bytes.Buffer

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	holds     map[player.Intent]time.Time
	lastFrame time.Time
	now       func() time.Time
	mapRef    *types.Map

	invCursor   int
	questCursor int

	width    int
	height   int
	ready    bool
	typing   bool
	quitting bool
}

// New creates a TUI model over s. store may be nil, which disables saving.
func New(s *engine.Session, store *storage.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	out := &bytes.Buffer{}
	c := cli.New(s, store)
	c.In = strings.NewReader("")
	c.Out = out

	m := Model{
		session: s,
		cmd:     c,
		out:     out,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   ti,
		history: NewHistory(100),
		holds:   make(map[player.Intent]time.Time),
		now:     time.Now,
	}
	m.rawLines = append(m.rawLines, rawLine{text: "Amgis. Press : for commands, ? for keys."})
	if s.Mode() == engine.ModeSetup {
		c.Line("worlds")
		out.WriteString("Type : then enter <world> <map file>, or press f9 to continue a save.\n")
	} else {
		c.Line("look")
	}
	m.collectOutput()
	return m
}

// Run starts the Bubble Tea program.
func Run(s *engine.Session, store *storage.Store) error {
	p := tea.NewProgram(New(s, store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func frame() tea.Cmd {
	return tea.Tick(cli.Frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init starts the frame clock.
func (m Model) Init() tea.Cmd {
	return frame()
}

// Update handles key presses, window resizes and frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(m.panelWidth(), panelRows)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.panelWidth()
			m.viewport.Height = panelRows
		}
		m.help.Width = m.width
		m.input.Width = m.width - 4
		m.resize()
		m.refreshViewport()
		return m, nil

	case frameMsg:
		m.step(time.Time(msg))
		return m, frame()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.typing {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// step advances the session to t and collects what it printed.
func (m *Model) step(t time.Time) {
	dt := cli.Frame
	if !m.lastFrame.IsZero() {
		dt = min(max(t.Sub(m.lastFrame), 0), maxFrame)
	}
	m.lastFrame = t
	m.releaseExpired(t)
	m.session.Tick(dt)
	if m.session.Map() != m.mapRef {
		m.resize()
	}
	m.cmd.Flush()
	m.collectOutput()
}

// hold presses in until holdWindow after now.
func (m *Model) hold(in player.Intent) {
	if m.session.Press(in) {
		m.holds[in] = m.now().Add(holdWindow)
	}
}

func (m *Model) releaseExpired(t time.Time) {
	for in, until := range m.holds {
		if t.After(until) {
			m.session.Release(in)
			delete(m.holds, in)
		}
	}
}

// resize maps the terminal area to world pixels so that one cell shows
// one tile at zoom 1.
func (m *Model) resize() {
	cols, rows := m.mapCells()
	tw, th := 32, 32
	if g := m.session.Grid(); g != nil {
		tw, th = g.TileWidth, g.TileHeight
	}
	m.session.Resize(float64(cols*tw), float64(rows*th))
	m.mapRef = m.session.Map()
}

func (m Model) mapCells() (cols, rows int) {
	return max(1, m.width/cellWidth), max(1, m.height-chromeRows)
}

func (m Model) panelWidth() int {
	return max(10, m.width-4)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Command):
		m.typing = true
		m.input.Focus()
		if msg.String() == "/" {
			m.input.SetValue("/")
			m.input.CursorEnd()
		}
		return m, textinput.Blink
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, k.Save):
		return m.runLine("/save")
	case key.Matches(msg, k.Resume):
		return m.runLine("/continue")
	case key.Matches(msg, k.PageUp), key.Matches(msg, k.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch m.session.Mode() {
	case engine.ModeCombat:
		m.combatKey(msg)
	case engine.ModeDialogue:
		m.dialogueKey(msg)
	case engine.ModeInventory:
		m.inventoryKey(msg)
	case engine.ModeQuestLog:
		m.questKey(msg)
	case engine.ModeExplore:
		m.exploreKey(msg)
	}
	m.collectOutput()
	return m, nil
}

func (m *Model) exploreKey(msg tea.KeyMsg) {
	k, s := m.keys, m.session
	for _, mv := range []struct {
		walk, sprint key.Binding
		in           player.Intent
	}{
		{k.Up, k.SprintUp, player.MoveUp},
		{k.Down, k.SprintDown, player.MoveDown},
		{k.Left, k.SprintLeft, player.MoveLeft},
		{k.Right, k.SprintRight, player.MoveRight},
	} {
		switch {
		case key.Matches(msg, mv.walk):
			if _, ok := m.holds[player.Sprint]; ok {
				s.Release(player.Sprint)
				delete(m.holds, player.Sprint)
			}
			m.hold(mv.in)
			return
		case key.Matches(msg, mv.sprint):
			m.hold(player.Sprint)
			m.hold(mv.in)
			return
		}
	}

	switch {
	case key.Matches(msg, k.Rest):
		m.hold(player.Rest)
	case key.Matches(msg, k.Interact):
		m.report(s.Interact())
	case key.Matches(msg, k.Inventory):
		m.invCursor = 0
		s.ToggleInventory()
	case key.Matches(msg, k.Quests):
		m.questCursor = 0
		s.ToggleQuestLog()
	case key.Matches(msg, k.ZoomIn):
		s.ZoomBy(1)
	case key.Matches(msg, k.ZoomOut):
		s.ZoomBy(-1)
	case key.Matches(msg, k.ZoomReset):
		s.SetZoom(1)
	}
}

func (m *Model) dialogueKey(msg tea.KeyMsg) {
	if key.Matches(msg, m.keys.Dismiss) {
		m.session.CloseDialogue()
		return
	}
	if n, ok := digit(msg); ok {
		m.report(m.session.Choose(n - 1))
	}
}

func (m *Model) inventoryKey(msg tea.KeyMsg) {
	k, s := m.keys, m.session
	rows := inventoryRows(s)
	switch {
	case key.Matches(msg, k.Dismiss), key.Matches(msg, k.Inventory):
		s.ToggleInventory()
	case key.Matches(msg, k.Up):
		m.invCursor = max(0, m.invCursor-1)
	case key.Matches(msg, k.Down):
		m.invCursor = min(max(0, len(rows)-1), m.invCursor+1)
	case key.Matches(msg, k.Select):
		if m.invCursor < len(rows) {
			m.activate(rows[m.invCursor].ID)
		}
	}
}

// activate uses a consumable or toggles an equippable item.
func (m *Model) activate(id string) {
	s := m.session
	it, ok := s.Catalog().Item(id)
	if !ok {
		return
	}
	switch {
	case it.Type == types.ItemConsumable:
		_, err := s.UseItem(id)
		m.report(err)
	case it.Slot != "" && s.Inventory().Equipped(it.Slot) == id:
		m.report(s.Unequip(it.Slot))
	default:
		m.report(s.Equip(id))
	}
	m.invCursor = min(m.invCursor, max(0, len(inventoryRows(s))-1))
}

func (m *Model) questKey(msg tea.KeyMsg) {
	k, s := m.keys, m.session
	quests := s.Quests().Quests()
	switch {
	case key.Matches(msg, k.Dismiss), key.Matches(msg, k.Quests):
		s.ToggleQuestLog()
	case key.Matches(msg, k.Up):
		m.questCursor = max(0, m.questCursor-1)
	case key.Matches(msg, k.Down):
		m.questCursor = min(max(0, len(quests)-1), m.questCursor+1)
	case key.Matches(msg, k.Select):
		if m.questCursor < len(quests) {
			m.report(s.SetTracked(quests[m.questCursor].ID))
		}
	}
}

func (m *Model) combatKey(msg tea.KeyMsg) {
	k, s := m.keys, m.session
	switch {
	case key.Matches(msg, k.Attack):
		m.report(s.Attack())
	case key.Matches(msg, k.Defend):
		m.report(s.Defend())
	case key.Matches(msg, k.Retreat):
		m.report(s.Retreat())
	case key.Matches(msg, k.Continue):
		m.report(s.Continue())
	case key.Matches(msg, k.Inventory):
		m.useFirstConsumable()
	}
}

// useFirstConsumable drinks the first healing item carried.
func (m *Model) useFirstConsumable() {
	s := m.session
	for _, e := range s.Inventory().Entries() {
		if it, ok := s.Catalog().Item(e.ID); ok && it.Type == types.ItemConsumable {
			_, err := s.UseItem(e.ID)
			m.report(err)
			return
		}
	}
	m.out.WriteString("[nothing to use]\n")
}

func digit(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '0'), true
	}
	return 0, false
}

// report logs a failed action as a system line.
func (m *Model) report(err error) {
	if err != nil {
		m.out.WriteString("[" + cli.Describe(err) + "]\n")
	}
}

// updatePrompt feeds a key to the command prompt.
func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.typing = false
		m.input.Blur()
		if input == "" {
			return m, nil
		}
		m.history.Push(input)
		m.rawLines = append(m.rawLines, rawLine{text: input, isInput: true})
		return m.runLine(input)

	case "esc":
		m.input.SetValue("")
		m.typing = false
		m.input.Blur()
		m.history.Reset()
		return m, nil

	case "up":
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		next, _ := m.history.Next()
		m.input.SetValue(next)
		m.input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runLine hands a command line to the line interpreter.
func (m Model) runLine(input string) (tea.Model, tea.Cmd) {
	quit := m.cmd.Line(input)
	m.collectOutput()
	if m.session.Map() != m.mapRef {
		m.resize()
	}
	if quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// collectOutput moves everything the interpreter printed into the log.
func (m *Model) collectOutput() {
	if m.out.Len() == 0 {
		return
	}
	text := strings.TrimRight(m.out.String(), "\n")
	m.out.Reset()
	for _, line := range strings.Split(text, "\n") {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLine(line)})
	}
	if len(m.rawLines) > maxLogLines {
		m.rawLines = m.rawLines[len(m.rawLines)-maxLogLines:]
	}
	m.refreshViewport()
}

const maxLogLines = 500

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := max(10, m.panelWidth()-2)
	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		if rl.isInput {
			styled = append(styled, styledPlayerInput(wrapped))
		} else {
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the map, the bottom panel, the status bar and the footer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	cols, rows := m.mapCells()
	area := renderMap(m.session, cols, rows)
	if area == "" {
		area = lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center,
			panelTitle("Amgis")+"\n"+styleSystem.Render("No map loaded."))
	} else {
		area = lipgloss.NewStyle().Height(rows).MaxHeight(rows).Render(area)
	}

	return area + "\n" + m.renderPanel() + "\n" + m.renderStatusBar() + "\n" + m.renderFooter()
}

func (m Model) renderPanel() string {
	s := m.session
	var body string
	switch {
	case m.help.ShowAll:
		body = m.help.FullHelpView(m.keys.FullHelp())
	case s.Mode() == engine.ModeDialogue:
		body = renderDialogue(s)
	case s.Mode() == engine.ModeInventory:
		body = renderInventory(s, m.invCursor)
	case s.Mode() == engine.ModeQuestLog:
		body = renderQuestLog(s, m.questCursor)
	case s.Mode() == engine.ModeCombat:
		body = renderCombat(s, panelRows-4)
	default:
		body = m.viewport.View()
	}
	return stylePanel.
		Width(m.panelWidth()).
		Height(panelRows).
		MaxHeight(panelRows + 2).
		Render(body)
}

func (m Model) renderFooter() string {
	if m.typing {
		return m.input.View()
	}
	if m.session.Mode() == engine.ModeCombat {
		return m.help.ShortHelpView(m.keys.combatHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// viewportKeyMap returns a viewport keymap limited to paging; arrows move
// the player.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithDisabled()),
		HalfPageUp:   key.NewBinding(key.WithDisabled()),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
