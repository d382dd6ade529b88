package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/amgis/engine"
)

// staminaBar draws stamina as a fixed-width gauge.
func staminaBar(stamina, maxStamina float64, width int) string {
	if maxStamina <= 0 || width <= 0 {
		return ""
	}
	filled := int(math.Round(stamina / maxStamina * float64(width)))
	filled = min(width, max(filled, 0))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// renderStatusBar produces a full-width inverted status line showing the
// current map and position on the left and stamina, zoom and the tracked
// quest on the right.
func (m Model) renderStatusBar() string {
	s := m.session

	left := " Amgis | choose a world"
	if s.Mode() != engine.ModeSetup {
		p := s.Player()
		left = fmt.Sprintf(" %s | %s | (%.0f, %.0f)", s.World().Name, s.MapMeta().Name, p.X, p.Y)
		if p.Resting {
			left += " resting"
		} else if p.Sprinting {
			left += " sprinting"
		}
	}

	p := s.Player()
	right := fmt.Sprintf("STA %s %3.0f | %.2fx ", staminaBar(p.Stamina, p.MaxStamina, 10), p.Stamina, s.Zoom())

	// Show the tracked quest if it fits.
	if q, ok := s.Quests().Tracked(); ok {
		candidate := fmt.Sprintf("%s | %s", questTitle(q.Name, q.ID), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

func questTitle(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
