package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// CleanupMsg is sent once the user confirms removal of the listed orphans
type CleanupMsg struct {
	Orphans []string
}

// Orphans lists cache entries no profile references. Deletion is disabled
// while any profile could not be read.
type Orphans struct {
	orphans    []string
	skipped    []string
	selected   int
	confirming bool
	width      int
	height     int
}

// NewOrphans creates an orphan view over a scan's orphans and the profiles it
// had to skip
func NewOrphans(orphans, skipped []string) Orphans {
	return Orphans{
		orphans: orphans,
		skipped: skipped,
		width:   80,
		height:  24,
	}
}

// Selected returns the currently selected index
func (o Orphans) Selected() int {
	return o.selected
}

// Count returns the number of orphans
func (o Orphans) Count() int {
	return len(o.orphans)
}

// IsConfirming returns whether the removal prompt is showing
func (o Orphans) IsConfirming() bool {
	return o.confirming
}

// Init implements tea.Model
func (o Orphans) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (o Orphans) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if o.confirming {
			o.confirming = false
			if msg.String() == "y" || msg.String() == "Y" {
				orphans := append([]string(nil), o.orphans...)
				return o, func() tea.Msg {
					return CleanupMsg{Orphans: orphans}
				}
			}
			return o, nil
		}
		return o.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height
		return o, nil
	}

	return o, nil
}

func (o Orphans) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if selected, ok := moveCursor(o.selected, len(o.orphans), key); ok {
		o.selected = selected
		return o, nil
	}

	if (key == "x" || key == "d" || key == "delete") && len(o.orphans) > 0 && len(o.skipped) == 0 {
		o.confirming = true
	}
	return o, nil
}

// View implements tea.Model
func (o Orphans) View() string {
	output := titleStyle.Render("Orphaned Mods") + "\n"

	if len(o.orphans) == 0 {
		output += itemStyle.Render("Every cached mod is used by a profile.") + "\n"
		return output
	}

	output += infoStyle.Render(fmt.Sprintf("%d cached mods are not in any profile:", len(o.orphans))) + "\n\n"
	for i, name := range o.orphans {
		output += cursorLine(i == o.selected, name) + "\n"
	}

	if len(o.skipped) > 0 {
		output += "\n" + warnStyle.Render(fmt.Sprintf("Unreadable profiles: %s", strings.Join(o.skipped, ", "))) + "\n"
		output += helpStyle.Render("Fix or delete them before removing mods.  esc: back")
		return output
	}

	if o.confirming {
		output += "\n" + warnStyle.Render(fmt.Sprintf("Delete %d mods from the cache? (y/n)", len(o.orphans)))
		return output
	}

	output += helpStyle.Render("x: delete all  esc: back")
	return output
}
