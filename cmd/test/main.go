package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
	"github.com/njyeung/lcpunlock/tui"
)

// Runs the prompt against a throwaway license whose passphrase is "test",
// without touching the passphrase database.
func main() {
	const id = "00000000-0000-4000-8000-000000000000"
	keyCheck, err := backend.SealKeyCheck(id, backend.UserKey("test"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	license := &auth.License{
		ID:       id,
		Provider: "https://provider.example/lcp",
		Hint:     "it is literally \"test\"",
		HintLink: &auth.Link{Href: "https://readium.org/lcp-specs/"},
		SupportLinks: []auth.Link{
			{Href: "https://readium.org"},
			{Href: "mailto:support@provider.example"},
			{Href: "tel:+15550100"},
		},
		KeyCheck: keyCheck,
		Profile:  backend.BasicProfile,
	}

	verifier := backend.NewVerifier(nil)
	defer verifier.Stop()
	sub := verifier.Subscribe()
	defer sub.Close()

	browser := backend.NewChromeBrowser(filepath.Join(os.TempDir(), "lcpunlock-test-chrome"), false)
	defer browser.Stop()

	p := tea.NewProgram(tui.NewModel(license, verifier, sub, backend.DetectOpener(), browser), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Outcome: %d\n", final.(tui.Model).Outcome())
}
