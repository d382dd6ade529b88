package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap is every binding the game screen reacts to. Terminals report no
// key releases, so movement keys hold their intent until auto-repeat stops.
type keyMap struct {
	Up, Down, Left, Right                         key.Binding
	SprintUp, SprintDown, SprintLeft, SprintRight key.Binding

	Rest      key.Binding
	Interact  key.Binding
	Inventory key.Binding
	Quests    key.Binding
	Select    key.Binding
	Dismiss   key.Binding

	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ZoomReset key.Binding

	Attack   key.Binding
	Defend   key.Binding
	Retreat  key.Binding
	Continue key.Binding

	Save     key.Binding
	Resume   key.Binding
	Command  key.Binding
	Help     key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑/w", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←/a", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→/d", "right")),
		SprintUp:    key.NewBinding(key.WithKeys("shift+up", "W"), key.WithHelp("shift+dir", "sprint")),
		SprintDown:  key.NewBinding(key.WithKeys("shift+down", "S")),
		SprintLeft:  key.NewBinding(key.WithKeys("shift+left", "A")),
		SprintRight: key.NewBinding(key.WithKeys("shift+right", "D")),

		Rest:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rest")),
		Interact:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "talk")),
		Inventory: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inventory")),
		Quests:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quests")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),

		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		ZoomReset: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),

		Attack:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attack")),
		Defend:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "defend")),
		Retreat:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flee")),
		Continue: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "continue")),

		Save:     key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "quicksave")),
		Resume:   key.NewBinding(key.WithKeys("f9"), key.WithHelp("f9", "continue save")),
		Command:  key.NewBinding(key.WithKeys(":", "/"), key.WithHelp(":", "command")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "keys")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}
}

// ShortHelp is the one-line footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.SprintUp, k.Interact, k.Inventory, k.Quests, k.Command, k.Help}
}

// FullHelp is the expanded key reference.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.SprintUp, k.Rest},
		{k.Interact, k.Inventory, k.Quests, k.Select, k.Dismiss},
		{k.Attack, k.Defend, k.Retreat, k.Continue},
		{k.ZoomIn, k.ZoomOut, k.ZoomReset, k.Save, k.Resume, k.Command, k.Quit},
	}
}

// combatHelp is the footer while an encounter is running.
func (k keyMap) combatHelp() []key.Binding {
	return []key.Binding{k.Attack, k.Defend, k.Retreat, k.Continue, k.Inventory}
}
