package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewLoading() string {
	if m.width == 0 || m.height == 0 {
		return fmt.Sprintf("\n\n   %s %s\n\n", m.spinner.View(), m.status)
	}

	return renderLoadingScreen(m.width, m.height, m.spinner.View()+" "+m.status)
}

func renderLoadingScreen(width, height int, status string) string {
	logo := []string{
		" _     ____ ____  ",
		"| |   / ___|  _ \\ ",
		"| |  | |   | |_) |",
		"| |__| |___|  __/ ",
		"|_____\\____|_|    ",
		"",
	}

	blockHeight := len(logo) + 1
	startRow := (height - blockHeight) / 2

	var b strings.Builder
	for y := range height {
		var line string
		switch {
		case y >= startRow && y < startRow+len(logo):
			line = center(titleStyle.Render, logo[y-startRow], width)
		case y == startRow+len(logo):
			line = center(statusStyle.Render, status, width)
		default:
			line = strings.Repeat(" ", width)
		}
		b.WriteString(line)
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func center(render func(...string) string, text string, width int) string {
	pad := width - lipgloss.Width(text)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	right := pad - left
	return strings.Repeat(" ", left) + render(text) + strings.Repeat(" ", right)
}
