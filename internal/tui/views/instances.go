package views

import (
	"fmt"

	"kpm/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// InstanceSelectedMsg is sent when an instance is chosen
type InstanceSelectedMsg struct {
	Instance *domain.Instance
}

// Instances is the instance selection view model
type Instances struct {
	instances []*domain.Instance
	selected  int
	width     int
	height    int
}

// NewInstances creates a new instance selection view
func NewInstances(instances []*domain.Instance) Instances {
	return Instances{
		instances: instances,
		width:     80,
		height:    24,
	}
}

// Selected returns the currently selected index
func (m Instances) Selected() int {
	return m.selected
}

// SelectedInstance returns the currently selected instance
func (m Instances) SelectedInstance() *domain.Instance {
	if len(m.instances) == 0 || m.selected >= len(m.instances) {
		return nil
	}
	return m.instances[m.selected]
}

// SetInstances replaces the listed instances, keeping the cursor in range
func (m Instances) SetInstances(instances []*domain.Instance) Instances {
	m.instances = instances
	m.selected = clampCursor(m.selected, len(instances))
	return m
}

// Init implements tea.Model
func (m Instances) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Instances) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m Instances) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if selected, ok := moveCursor(m.selected, len(m.instances), key); ok {
		m.selected = selected
		return m, nil
	}

	switch key {
	case "enter", " ":
		inst := m.SelectedInstance()
		if inst != nil {
			return m, func() tea.Msg {
				return InstanceSelectedMsg{Instance: inst}
			}
		}
	}

	return m, nil
}

// View implements tea.Model
func (m Instances) View() string {
	if len(m.instances) == 0 {
		return infoStyle.Render(`No instances registered.

Register a KSP installation with:
  kpm instance add <name> <path>

or look for Steam installs with:
  kpm instance detect
`)
	}

	output := titleStyle.Render("Select an Instance") + "\n\n"

	for i, inst := range m.instances {
		line := inst.Name
		if inst.ActiveProfile != "" {
			line += activeStyle.Render(fmt.Sprintf(" [%s]", inst.ActiveProfile))
		}
		output += cursorLine(i == m.selected, line) + "\n"

		if i == m.selected {
			output += detailStyle.Render("Path: "+inst.Path) + "\n\n"
		}
	}

	output += helpStyle.Render("enter: select  o: orphans")
	return output
}
