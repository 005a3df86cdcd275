package tui_test

import (
	"testing"

	"kpm/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeyMap_VimMode(t *testing.T) {
	km := tui.NewKeyMap("vim")

	assert.True(t, km.IsUp(runeKey('k')))
	assert.True(t, km.IsDown(runeKey('j')))
	assert.True(t, km.IsHome(runeKey('g')))
	assert.True(t, km.IsEnd(runeKey('G')))
	assert.True(t, km.IsBack(runeKey('h')))
	assert.True(t, km.IsBack(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.True(t, km.IsQuit(runeKey('q')))
	assert.True(t, km.IsQuit(tea.KeyMsg{Type: tea.KeyCtrlC}))
}

func TestKeyMap_StandardMode(t *testing.T) {
	km := tui.NewKeyMap("standard")

	assert.True(t, km.IsUp(tea.KeyMsg{Type: tea.KeyUp}))
	assert.True(t, km.IsDown(tea.KeyMsg{Type: tea.KeyDown}))
	assert.True(t, km.IsHome(tea.KeyMsg{Type: tea.KeyHome}))
	assert.True(t, km.IsEnd(tea.KeyMsg{Type: tea.KeyEnd}))

	// But not vim keys for navigation
	assert.False(t, km.IsUp(runeKey('k')))
	assert.False(t, km.IsDown(runeKey('j')))
	assert.False(t, km.IsBack(runeKey('h')))
}

func TestKeyMap_Normalize(t *testing.T) {
	vim := tui.NewKeyMap("vim")
	std := tui.NewKeyMap("standard")

	tests := []struct {
		name string
		km   *tui.KeyMap
		in   tea.KeyMsg
		want tea.KeyType
	}{
		{"vim j", vim, runeKey('j'), tea.KeyDown},
		{"vim k", vim, runeKey('k'), tea.KeyUp},
		{"vim g", vim, runeKey('g'), tea.KeyHome},
		{"vim G", vim, runeKey('G'), tea.KeyEnd},
		{"arrow in vim", vim, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyUp},
		{"arrow in standard", std, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyDown},
		{"j in standard", std, runeKey('j'), tea.KeyRunes},
		{"action key", vim, runeKey('u'), tea.KeyRunes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.km.Normalize(tt.in).Type)
		})
	}
}

func TestKeyMap_Help(t *testing.T) {
	assert.Contains(t, tui.NewKeyMap("vim").NavigationHelp(), "j/k")
	assert.Contains(t, tui.NewKeyMap("standard").NavigationHelp(), "↑/↓")
	assert.Contains(t, tui.NewKeyMap("vim").FullHelp(), "Apply profile")
}

func TestKeyMap_DefaultsToVim(t *testing.T) {
	km := tui.NewKeyMap("")

	assert.Equal(t, "vim", km.Mode())
	assert.True(t, km.IsUp(runeKey('k')))
}
