package tui

import "strings"

func (m Model) viewPrompt() string {
	p := m.screen.prompt
	if p == nil {
		return m.viewLoading()
	}

	title := titleStyle.Render("Passphrase Required")
	box := inputStyle
	if p.PreviousFailure {
		title = errorStyle.Bold(true).Render("Incorrect Passphrase")
		box = failedInputStyle
	}

	message := "In order to open it, we need to know the passphrase required by: " +
		providerStyle.Render(p.Provider) + "."
	if p.Hint != "" {
		message += "\nTo help you remember it, the following hint is available."
	}

	help := []string{"enter: unlock", "tab: show/hide", "esc: cancel"}
	if p.HasSupport {
		help = append(help, "ctrl+s: support")
	}
	if p.HasHintLink {
		help = append(help, "ctrl+o: hint page")
	}

	content := []string{
		title,
		"",
		message,
	}
	if p.Hint != "" {
		content = append(content, "", hintStyle.Render(p.Hint))
	}
	content = append(content,
		"",
		box.Render(m.input.View()),
		"",
		statusStyle.Render(m.status),
		navStyle.Render(strings.Join(help, "  ")),
	)

	block := strings.Join(content, "\n")
	return "\n" + strings.Repeat(" ", 4) + strings.ReplaceAll(block, "\n", "\n    ")
}
