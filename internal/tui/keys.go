package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines keybindings for the TUI
type KeyMap struct {
	mode string
}

// NewKeyMap creates a new keymap for the given mode
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

func (k *KeyMap) vim() bool {
	return k.mode == "vim"
}

// IsUp returns true if the key is an "up" navigation key
func (k *KeyMap) IsUp(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyUp || (k.vim() && msg.String() == "k")
}

// IsDown returns true if the key is a "down" navigation key
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyDown || (k.vim() && msg.String() == "j")
}

// IsHome returns true if the key should go to first item
func (k *KeyMap) IsHome(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyHome || (k.vim() && msg.String() == "g")
}

// IsEnd returns true if the key should go to last item
func (k *KeyMap) IsEnd(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnd || (k.vim() && msg.String() == "G")
}

// IsBack returns true if the key returns to the previous view
func (k *KeyMap) IsBack(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc || (k.vim() && msg.String() == "h")
}

// IsQuit returns true if the key is a quit key
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsHelp returns true if the key should show help
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// Normalize maps mode-specific navigation keys onto the arrow and home/end
// keys the views understand. Other keys pass through unchanged.
func (k *KeyMap) Normalize(msg tea.KeyMsg) tea.KeyMsg {
	switch {
	case k.IsUp(msg):
		return tea.KeyMsg{Type: tea.KeyUp}
	case k.IsDown(msg):
		return tea.KeyMsg{Type: tea.KeyDown}
	case k.IsHome(msg):
		return tea.KeyMsg{Type: tea.KeyHome}
	case k.IsEnd(msg):
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return msg
}

// NavigationHelp returns help text for navigation keys
func (k *KeyMap) NavigationHelp() string {
	if k.vim() {
		return "j/k: navigate  h/esc: back"
	}
	return "↑/↓: navigate  esc: back"
}

// FullHelp returns complete help text
func (k *KeyMap) FullHelp() string {
	if k.vim() {
		return `Navigation:
  j/k     Move down/up
  g/G     Go to first/last item
  h, esc  Back

Profiles:
  enter   Apply profile
  u       Update profile from the data directory
  s       Save the data directory as a new profile
  b       Back up the data directory
  m       Edit mods
  n       New blank profile
  d       Delete profile

Other:
  o       Orphaned mods
  ?       Help
  q       Quit`
	}

	return `Navigation:
  ↑/↓     Move up/down
  Home    Go to first item
  End     Go to last item
  Esc     Back

Profiles:
  Enter   Apply profile
  u       Update profile from the data directory
  s       Save the data directory as a new profile
  b       Back up the data directory
  m       Edit mods
  n       New blank profile
  d       Delete profile

Other:
  o       Orphaned mods
  ?       Help
  q       Quit`
}
