package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleNotice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	stylePanelTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleSelected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("81"))

	styleDone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("71"))

	styleFloor = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	styleWall = lipgloss.NewStyle().
			Foreground(lipgloss.Color("94")).
			Background(lipgloss.Color("58"))

	stylePlayer = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("27")).
			Bold(true)

	styleNPC = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleNearby = lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("220")).
			Bold(true)

	styleHPHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))
	styleHPLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// lineKind identifies the type of a log line for styling.
type lineKind int

const (
	kindText lineKind = iota
	kindDialogue
	kindNotice
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of log line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[[trace]"), strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[Quest"), strings.HasPrefix(line, "[Objective"):
		return kindNotice
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		if isFailure(line) {
			return kindError
		}
		return kindSystem
	case isSpeech(line):
		return kindDialogue
	default:
		return kindText
	}
}

func isFailure(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range []string{"cannot", "not found", "failed", "unknown", "invalid", "usage"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// isSpeech matches "Name: text" lines, where the name is a few words.
func isSpeech(line string) bool {
	name, text, ok := strings.Cut(line, ": ")
	if !ok || text == "" || name == "" || strings.HasPrefix(line, " ") {
		return false
	}
	return len(strings.Fields(name)) <= 3 && !strings.ContainsAny(name, "[(")
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindNotice:
		return styleNotice.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleText.Render(line)
	}
}

// styledPlayerInput renders the echoed player input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}
