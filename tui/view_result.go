package tui

import "fmt"

func (m Model) viewResult() string {
	if m.state == stateUnlocked {
		return fmt.Sprintf("\n\n   %s\n\n", successStyle.Render("License unlocked."))
	}
	return fmt.Sprintf("\n\n   %s\n\n", statusStyle.Render("Authentication cancelled."))
}
