package tui

import (
	"context"
	"fmt"
	"strings"

	"kpm/internal/core"
	"kpm/internal/domain"
	"kpm/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewInstances ViewType = iota
	ViewProfiles
	ViewMods
	ViewOrphans
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// StatusMsg reports the outcome of a finished operation
type StatusMsg struct {
	Text string
}

// opDoneMsg ends a background operation
type opDoneMsg struct {
	status string
	err    error
}

// App is the main TUI application model
type App struct {
	service     *core.Service
	keys        *KeyMap
	currentView ViewType
	width       int
	height      int
	err         error
	status      string
	busy        string
	showHelp    bool

	instance *domain.Instance
	previous ViewType

	// Sub-models for each view
	instances views.Instances
	profiles  views.Profiles
	mods      views.Mods
	orphans   views.Orphans
}

// NewApp creates a new TUI application
func NewApp(service *core.Service) App {
	mode := ""
	var instances []*domain.Instance
	if service != nil {
		mode = service.Config().Keybindings
		instances = service.ListInstances()
	}

	return App{
		service:     service,
		keys:        NewKeyMap(mode),
		currentView: ViewInstances,
		width:       80,
		height:      24,
		instances:   views.NewInstances(instances),
		profiles:    views.NewProfiles(nil, nil),
		mods:        views.NewMods(nil, nil),
		orphans:     views.NewOrphans(nil, nil),
	}
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Instance returns the selected instance, if any
func (a App) Instance() *domain.Instance {
	return a.instance
}

// Status returns the last status line
func (a App) Status() string {
	return a.status
}

// Err returns the last error shown to the user
func (a App) Err() error {
	return a.err
}

// Busy reports whether a background operation is running
func (a App) Busy() bool {
	return a.busy != ""
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case ErrorMsg:
		a.err = msg.Err
		return a, nil

	case StatusMsg:
		a.status = msg.Text
		a.err = nil
		return a, nil

	case opDoneMsg:
		a.busy = ""
		a.status = msg.status
		a.err = msg.err
		a = a.reload()
		return a, nil

	case views.InstanceSelectedMsg:
		a.instance = msg.Instance
		a.currentView = ViewProfiles
		return a.loadProfiles(), nil

	case views.ApplyProfileMsg:
		if a.instance == nil {
			return a, nil
		}
		return a.start("Applying "+msg.Profile, a.applyCmd(msg.Profile))

	case views.UpdateProfileMsg:
		if a.instance == nil {
			return a, nil
		}
		return a.start("Updating "+msg.Profile, a.updateCmd(msg.Profile))

	case views.BackupMsg:
		if a.instance == nil {
			return a, nil
		}
		return a.start("Backing up "+msg.Profile, a.backupCmd(msg.Profile))

	case views.CleanupMsg:
		return a.start("Removing orphans", a.cleanupCmd(msg.Orphans))

	case views.DeleteProfileMsg:
		return a.deleteProfile(msg.Profile), nil

	case views.CreateProfileMsg:
		return a.createProfile(msg.Name), nil

	case views.EditModsMsg:
		return a.editMods(msg.Profile), nil

	case views.SaveModsMsg:
		return a.saveMods(msg.Profile, msg.Mods), nil
	}

	// Delegate to current view's model
	return a.updateCurrentView(msg)
}

// capturing reports whether the current view owns every key
func (a App) capturing() bool {
	switch a.currentView {
	case ViewProfiles:
		return a.profiles.Capturing()
	case ViewOrphans:
		return a.orphans.IsConfirming()
	}
	return false
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if a.busy != "" {
		return a, nil
	}
	if a.capturing() {
		return a.updateCurrentView(msg)
	}

	// Global keybindings
	switch {
	case a.keys.IsQuit(msg):
		return a, tea.Quit

	case a.keys.IsHelp(msg):
		a.showHelp = !a.showHelp
		return a, nil

	case a.keys.IsBack(msg):
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		return a.back(), nil

	case msg.String() == "o" && a.currentView != ViewMods:
		return a.openOrphans(), nil
	}

	return a.updateCurrentView(a.keys.Normalize(msg))
}

func (a App) back() App {
	a.err = nil
	switch a.currentView {
	case ViewProfiles:
		a.currentView = ViewInstances
	case ViewMods:
		a.currentView = ViewProfiles
	case ViewOrphans:
		a.currentView = a.previous
	}
	return a
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var model tea.Model
	var cmd tea.Cmd

	switch a.currentView {
	case ViewInstances:
		model, cmd = a.instances.Update(msg)
		a.instances = model.(views.Instances)
	case ViewProfiles:
		model, cmd = a.profiles.Update(msg)
		a.profiles = model.(views.Profiles)
	case ViewMods:
		model, cmd = a.mods.Update(msg)
		a.mods = model.(views.Mods)
	case ViewOrphans:
		model, cmd = a.orphans.Update(msg)
		a.orphans = model.(views.Orphans)
	}

	return a, cmd
}

// start marks the app busy and runs op in the background
func (a App) start(label string, op tea.Cmd) (tea.Model, tea.Cmd) {
	if a.service == nil {
		return a, nil
	}
	a.busy = label
	a.status = ""
	a.err = nil
	return a, op
}

func (a App) applyCmd(profile string) tea.Cmd {
	svc, inst := a.service, a.instance.Name
	return func() tea.Msg {
		result, err := svc.Apply(context.Background(), inst, profile, nil)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: applySummary(result)}
	}
}

func applySummary(r *domain.ApplyResult) string {
	var b strings.Builder
	if r.Success() {
		fmt.Fprintf(&b, "Applied %s: %d/%d mods", r.Profile, r.Applied, r.Total)
	} else {
		fmt.Fprintf(&b, "Applied %s partially: %d/%d mods", r.Profile, r.Applied, r.Total)
		if len(r.Missing) > 0 {
			fmt.Fprintf(&b, ", missing %s", strings.Join(r.Missing, ", "))
		}
		if len(r.Failed) > 0 {
			fmt.Fprintf(&b, ", failed %s", strings.Join(domain.ItemNames(r.Failed), ", "))
		}
	}
	for _, w := range r.Warnings {
		b.WriteString("\nwarning: " + w)
	}
	return b.String()
}

func (a App) updateCmd(profile string) tea.Cmd {
	svc, inst := a.service, a.instance.Name
	return func() tea.Msg {
		// The profiles view already asked before overwriting.
		overwrite := func(string) bool { return true }
		result, err := svc.Update(context.Background(), inst, profile, overwrite, nil)
		if err != nil {
			return opDoneMsg{err: err}
		}
		status := fmt.Sprintf("Updated %s: %d mods, %d new in cache", result.Profile, len(result.Mods), len(result.Added))
		if len(result.Failed) > 0 {
			status += fmt.Sprintf(", %d not cached", len(result.Failed))
		}
		return opDoneMsg{status: status}
	}
}

func (a App) backupCmd(profile string) tea.Cmd {
	svc, inst := a.service, a.instance.Name
	return func() tea.Msg {
		result, err := svc.Backup(context.Background(), inst, profile, nil)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Backed up %d files (%s) to %s",
			result.Files, humanize.Bytes(uint64(result.Bytes)), result.Path)}
	}
}

func (a App) cleanupCmd(orphans []string) tea.Cmd {
	svc := a.service
	return func() tea.Msg {
		result := svc.Cleanup(context.Background(), orphans, nil)
		status := fmt.Sprintf("Removed %d orphaned mods", len(result.Removed))
		if len(result.Failed) > 0 {
			return opDoneMsg{status: status, err: fmt.Errorf("could not remove %s", strings.Join(domain.ItemNames(result.Failed), ", "))}
		}
		return opDoneMsg{status: status}
	}
}

func (a App) deleteProfile(name string) App {
	if a.service == nil || a.instance == nil {
		return a
	}
	if err := a.service.DeleteProfile(a.instance.Name, name); err != nil {
		a.err = err
		return a
	}
	a.status = "Deleted " + name
	a.err = nil
	return a.loadProfiles()
}

func (a App) createProfile(name string) App {
	if a.service == nil || a.instance == nil {
		return a
	}
	if _, err := a.service.Profiles().CreateBlank(a.instance.Name, name, false); err != nil {
		a.err = err
		return a
	}
	a.status = "Created " + name
	a.err = nil
	return a.loadProfiles()
}

func (a App) editMods(profile *domain.Profile) App {
	if a.service == nil {
		return a
	}
	if profile.Mods == nil {
		a.err = fmt.Errorf("profile %s could not be read", profile.Name)
		return a
	}
	cached, err := a.service.Profiles().AvailableMods()
	if err != nil {
		a.err = err
		return a
	}
	a.mods = views.NewMods(profile, cached)
	a.currentView = ViewMods
	return a
}

func (a App) saveMods(profile string, mods []string) App {
	if a.service == nil || a.instance == nil {
		return a
	}
	if _, err := a.service.Profiles().Save(a.instance.Name, profile, mods); err != nil {
		a.err = err
		return a
	}
	a.status = fmt.Sprintf("Saved %s with %d mods", profile, len(mods))
	a.err = nil
	return a.loadProfiles()
}

func (a App) openOrphans() App {
	if a.service == nil {
		return a
	}
	scan, err := a.service.FindOrphans(nil)
	if err != nil {
		a.err = err
		return a
	}
	a.orphans = views.NewOrphans(scan.Orphans, scan.Skipped)
	if a.currentView != ViewOrphans {
		a.previous = a.currentView
	}
	a.currentView = ViewOrphans
	return a
}

// loadProfiles rebuilds the profiles view for the selected instance.
// Unreadable profiles are listed without mods.
func (a App) loadProfiles() App {
	if a.service == nil || a.instance == nil {
		a.profiles = views.NewProfiles(a.instance, nil)
		return a
	}

	names, err := a.service.Profiles().List(a.instance)
	if err != nil {
		a.err = err
		return a
	}
	profiles := make([]*domain.Profile, 0, len(names))
	for _, name := range names {
		profile, err := a.service.Profiles().Get(a.instance.Name, name)
		if err != nil {
			profile = &domain.Profile{Name: name, Instance: a.instance.Name}
		}
		profiles = append(profiles, profile)
	}
	a.profiles = views.NewProfiles(a.instance, profiles)
	return a
}

// reload refreshes state a finished operation may have changed
func (a App) reload() App {
	if a.service == nil {
		return a
	}
	a.instances = a.instances.SetInstances(a.service.ListInstances())
	if a.instance != nil {
		if inst, err := a.service.GetInstance(a.instance.Name); err == nil {
			a.instance = inst
		}
		a = a.loadProfiles()
	}
	if a.currentView == ViewOrphans {
		if scan, err := a.service.FindOrphans(nil); err == nil {
			a.orphans = views.NewOrphans(scan.Orphans, scan.Skipped)
		}
	}
	return a
}

// View implements tea.Model
func (a App) View() string {
	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Header
	header := titleStyle.Render("kpm - KSP Profile Manager")

	// Tab bar
	tabs := []string{"Instances", "Profiles", "Mods", "Orphans"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	// Content
	content := a.renderCurrentView()
	if a.showHelp {
		content = a.keys.FullHelp()
	}

	// Status line
	var statusLine string
	switch {
	case a.busy != "":
		statusLine = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(a.busy + "...")
	case a.err != nil:
		statusLine = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", a.err))
	case a.status != "":
		statusLine = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render(a.status)
	}

	// Footer
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render(a.keys.NavigationHelp() + "  q: quit  ?: help")

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s", header, tabBar, content, statusLine, footer)
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewInstances:
		return a.instances.View()
	case ViewProfiles:
		return a.profiles.View()
	case ViewMods:
		return a.mods.View()
	case ViewOrphans:
		return a.orphans.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(service *core.Service) error {
	app := NewApp(service)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
