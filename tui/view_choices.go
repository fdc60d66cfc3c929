package tui

import "strings"

func (m Model) viewChoices() string {
	var b strings.Builder
	b.WriteString("\n    ")
	b.WriteString(titleStyle.Render("Contact support"))
	b.WriteString("\n\n")

	for i, c := range m.screen.choices {
		line := "  " + c.Label
		if i == m.cursor {
			line = selectedStyle.Render("> " + c.Label)
		}
		b.WriteString("    " + line + "\n")
	}

	b.WriteString("\n    ")
	b.WriteString(navStyle.Render("↑/k ↓/j: move  enter: select  esc: back"))
	b.WriteString("\n")
	return b.String()
}
