package views

import (
	"fmt"
	"slices"

	"kpm/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ApplyProfileMsg is sent to apply a profile to the instance
type ApplyProfileMsg struct {
	Profile string
}

// UpdateProfileMsg is sent to rebuild a profile from the live data directory
type UpdateProfileMsg struct {
	Profile string
}

// BackupMsg is sent to archive the data directory under a profile's name
type BackupMsg struct {
	Profile string
}

// DeleteProfileMsg is sent to delete a profile
type DeleteProfileMsg struct {
	Profile string
}

// CreateProfileMsg is sent when a new blank profile is named
type CreateProfileMsg struct {
	Name string
}

// EditModsMsg is sent to edit a profile's mod selection
type EditModsMsg struct {
	Profile *domain.Profile
}

type inputMode int

const (
	inputNone inputMode = iota
	inputBlank
	inputSnapshot
)

// Profiles is the profile management view
type Profiles struct {
	instance  *domain.Instance
	profiles  []*domain.Profile
	selected  int
	input     inputMode
	nameInput textinput.Model
	prompt    string
	pending   tea.Msg
	width     int
	height    int
}

// NewProfiles creates a new profiles view
func NewProfiles(instance *domain.Instance, profiles []*domain.Profile) Profiles {
	ti := textinput.New()
	ti.Placeholder = "Profile name..."
	ti.CharLimit = 64
	ti.Width = 30

	return Profiles{
		instance:  instance,
		profiles:  profiles,
		nameInput: ti,
		width:     80,
		height:    24,
	}
}

// Selected returns the currently selected index
func (p Profiles) Selected() int {
	return p.selected
}

// ProfileCount returns the number of profiles
func (p Profiles) ProfileCount() int {
	return len(p.profiles)
}

// IsCreating returns whether the name input has focus
func (p Profiles) IsCreating() bool {
	return p.input != inputNone
}

// IsConfirming returns whether a confirmation prompt is showing
func (p Profiles) IsConfirming() bool {
	return p.pending != nil
}

// Capturing reports whether keys belong to an input or prompt
func (p Profiles) Capturing() bool {
	return p.IsCreating() || p.IsConfirming()
}

// SelectedProfile returns the currently selected profile
func (p Profiles) SelectedProfile() *domain.Profile {
	if len(p.profiles) == 0 || p.selected >= len(p.profiles) {
		return nil
	}
	return p.profiles[p.selected]
}

func (p Profiles) activeProfile() string {
	if p.instance == nil {
		return ""
	}
	return p.instance.ActiveProfile
}

func (p Profiles) hasProfile(name string) bool {
	return slices.ContainsFunc(p.profiles, func(prof *domain.Profile) bool {
		return prof.Name == name
	})
}

// Init implements tea.Model
func (p Profiles) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p Profiles) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.pending != nil {
			return p.handleConfirm(msg)
		}
		if p.input != inputNone {
			return p.handleCreateMode(msg)
		}
		return p.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	}

	return p, nil
}

func (p Profiles) confirm(prompt string, msg tea.Msg) Profiles {
	p.prompt = prompt
	p.pending = msg
	return p
}

func (p Profiles) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := p.pending
	p.pending = nil
	p.prompt = ""
	if msg.String() == "y" || msg.String() == "Y" {
		return p, func() tea.Msg { return pending }
	}
	return p, nil
}

func (p Profiles) handleCreateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.input = inputNone
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, nil

	case tea.KeyEnter:
		name := p.nameInput.Value()
		if name == "" {
			return p, nil
		}
		mode := p.input
		p.input = inputNone
		p.nameInput.Reset()
		p.nameInput.Blur()

		if mode == inputSnapshot {
			update := UpdateProfileMsg{Profile: name}
			if p.hasProfile(name) {
				return p.confirm(fmt.Sprintf("Profile %q exists. Overwrite it from the data directory?", name), update), nil
			}
			return p, func() tea.Msg { return update }
		}
		return p, func() tea.Msg {
			return CreateProfileMsg{Name: name}
		}

	default:
		var cmd tea.Cmd
		p.nameInput, cmd = p.nameInput.Update(msg)
		return p, cmd
	}
}

func (p Profiles) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if selected, ok := moveCursor(p.selected, len(p.profiles), key); ok {
		p.selected = selected
		return p, nil
	}

	switch key {
	case "n":
		p.input = inputBlank
		p.nameInput.Focus()
		return p, textinput.Blink

	case "s":
		p.input = inputSnapshot
		p.nameInput.Focus()
		return p, textinput.Blink
	}

	profile := p.SelectedProfile()
	if profile == nil {
		return p, nil
	}

	switch key {
	case "enter", "a":
		return p, func() tea.Msg {
			return ApplyProfileMsg{Profile: profile.Name}
		}

	case "u":
		return p.confirm(
			fmt.Sprintf("Overwrite profile %q from the data directory?", profile.Name),
			UpdateProfileMsg{Profile: profile.Name},
		), nil

	case "b":
		return p, func() tea.Msg {
			return BackupMsg{Profile: profile.Name}
		}

	case "m":
		return p, func() tea.Msg {
			return EditModsMsg{Profile: profile}
		}

	case "d", "delete":
		if profile.Name == p.activeProfile() {
			return p, nil
		}
		return p.confirm(
			fmt.Sprintf("Delete profile %q?", profile.Name),
			DeleteProfileMsg{Profile: profile.Name},
		), nil
	}

	return p, nil
}

// View implements tea.Model
func (p Profiles) View() string {
	output := titleStyle.Render("Profiles") + "\n"

	instName := "No instance selected"
	if p.instance != nil {
		instName = p.instance.Name
	}
	output += infoStyle.Render(fmt.Sprintf("Instance: %s", instName)) + "\n\n"

	if p.pending != nil {
		output += warnStyle.Render(p.prompt) + "\n\n"
		output += infoStyle.Render("y: confirm  any other key: cancel")
		return output
	}

	if p.input != inputNone {
		label := "New profile name: "
		if p.input == inputSnapshot {
			label = "Save data directory as: "
		}
		output += label + p.nameInput.View() + "\n\n"
		output += infoStyle.Render("enter: create  esc: cancel")
		return output
	}

	if len(p.profiles) == 0 {
		output += itemStyle.Render("No profiles for this instance.") + "\n\n"
		output += infoStyle.Render("Press 'n' for a blank profile or 's' to save the data directory as one.") + "\n"
		return output
	}

	for i, profile := range p.profiles {
		line := profile.Name
		if profile.Name == p.activeProfile() {
			line += activeStyle.Render(" [active]")
		}
		output += cursorLine(i == p.selected, line) + "\n"

		if i == p.selected {
			if profile.Mods == nil {
				output += detailStyle.Render("unreadable") + "\n\n"
			} else {
				output += detailStyle.Render(fmt.Sprintf("Mods: %d", len(profile.Mods))) + "\n\n"
			}
		}
	}

	output += helpStyle.Render("enter: apply  u: update  s: save as  b: backup  m: mods  n: new  d: delete")
	return output
}
