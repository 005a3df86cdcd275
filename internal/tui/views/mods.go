package views

import (
	"fmt"
	"slices"

	"kpm/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// SaveModsMsg is sent to persist an edited mod selection
type SaveModsMsg struct {
	Profile string
	Mods    []string
}

type modRow struct {
	name    string
	enabled bool
	cached  bool
}

// Mods lists the mod cache with the selected profile's membership marked
type Mods struct {
	profile  string
	rows     []modRow
	selected int
	dirty    bool
	width    int
	height   int
}

// NewMods creates a mods view for profile over the cached mod names. Profile
// entries absent from the cache are listed as missing.
func NewMods(profile *domain.Profile, cached []string) Mods {
	enabled := make(map[string]bool)
	var name string
	if profile != nil {
		name = profile.Name
		for _, mod := range profile.Mods {
			enabled[mod] = true
		}
	}

	seen := make(map[string]bool)
	var rows []modRow
	for _, mod := range cached {
		seen[mod] = true
		rows = append(rows, modRow{name: mod, enabled: enabled[mod], cached: true})
	}
	for mod := range enabled {
		if !seen[mod] {
			rows = append(rows, modRow{name: mod, enabled: true})
		}
	}
	slices.SortFunc(rows, func(a, b modRow) int {
		return domain.NaturalCompare(a.name, b.name)
	})

	return Mods{
		profile: name,
		rows:    rows,
		width:   80,
		height:  24,
	}
}

// Selected returns the currently selected index
func (m Mods) Selected() int {
	return m.selected
}

// ModCount returns the number of listed mods
func (m Mods) ModCount() int {
	return len(m.rows)
}

// Dirty reports whether the selection differs from the saved profile
func (m Mods) Dirty() bool {
	return m.dirty
}

// EnabledMods returns the selected mod names in natural order
func (m Mods) EnabledMods() []string {
	mods := []string{}
	for _, r := range m.rows {
		if r.enabled {
			mods = append(mods, r.name)
		}
	}
	return mods
}

// Init implements tea.Model
func (m Mods) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Mods) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Mods) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if selected, ok := moveCursor(m.selected, len(m.rows), key); ok {
		m.selected = selected
		return m, nil
	}

	switch key {
	case " ", "enter":
		if len(m.rows) == 0 {
			return m, nil
		}
		rows := slices.Clone(m.rows)
		rows[m.selected].enabled = !rows[m.selected].enabled
		m.rows = rows
		m.dirty = true
		return m, nil

	case "w":
		if m.profile == "" || !m.dirty {
			return m, nil
		}
		m.dirty = false
		save := SaveModsMsg{Profile: m.profile, Mods: m.EnabledMods()}
		return m, func() tea.Msg { return save }
	}

	return m, nil
}

// View implements tea.Model
func (m Mods) View() string {
	output := titleStyle.Render("Mods") + "\n"
	output += infoStyle.Render(fmt.Sprintf("Profile: %s  Selected: %d/%d", m.profile, len(m.EnabledMods()), len(m.rows))) + "\n\n"

	if len(m.rows) == 0 {
		output += itemStyle.Render("The mod cache is empty.") + "\n\n"
		output += infoStyle.Render("Add mods with 'kpm mods import <archive>' or by updating a profile.") + "\n"
		return output
	}

	for i, r := range m.rows {
		status := "[ ]"
		if r.enabled {
			status = "[✓]"
		}
		line := fmt.Sprintf("%s %s", status, r.name)
		if !r.cached {
			line += warnStyle.Render(" (missing)")
		}
		output += cursorLine(i == m.selected, line) + "\n"
	}

	help := "space: toggle  w: save  esc: back"
	if m.dirty {
		help = warnStyle.Render("unsaved changes") + "  " + help
	}
	output += helpStyle.Render(help)
	return output
}
