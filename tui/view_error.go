package tui

import "fmt"

func (m Model) viewError() string {
	msg := "unknown error"
	if m.err != nil {
		msg = m.err.Error()
	}
	return fmt.Sprintf("\n\n   %s\n\n   Press q to quit.\n", errorStyle.Render(msg))
}
