package views

import "github.com/charmbracelet/lipgloss"

// moveCursor applies a normalized navigation key to a list cursor. The second
// return value reports whether the key was a navigation key.
func moveCursor(selected, count int, key string) (int, bool) {
	if count == 0 {
		return 0, key == "up" || key == "down" || key == "home" || key == "end"
	}

	switch key {
	case "up":
		selected--
		if selected < 0 {
			selected = count - 1
		}
	case "down":
		selected++
		if selected >= count {
			selected = 0
		}
	case "home":
		selected = 0
	case "end":
		selected = count - 1
	default:
		return selected, false
	}
	return selected, true
}

// clampCursor keeps a cursor inside a list that may have shrunk
func clampCursor(selected, count int) int {
	if selected >= count {
		selected = count - 1
	}
	if selected < 0 {
		selected = 0
	}
	return selected
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("205")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(4)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

func cursorLine(selected bool, text string) string {
	if selected {
		return selectedStyle.Render("▸ " + text)
	}
	return itemStyle.Render("  " + text)
}
