package tui

import (
	"net/url"

	"github.com/njyeung/lcpunlock/auth"
)

// screen is the auth.Surface behind the Bubble Tea model. The coordinator
// writes to it during Update and the model reads it back right after.
type screen struct {
	prompt    *auth.Prompt
	dismissed bool
	choices   []auth.Choice
	browse    *url.URL
}

var _ auth.Surface = (*screen)(nil)

func (s *screen) Show(p auth.Prompt) {
	s.prompt = &p
	s.dismissed = false
	s.choices = nil
}

func (s *screen) Dismiss() {
	s.prompt = nil
	s.dismissed = true
	s.choices = nil
}

func (s *screen) ShowChoices(choices []auth.Choice) {
	s.choices = choices
}

func (s *screen) ShowBrowser(u *url.URL) {
	s.browse = u
}

// takeBrowse returns and clears a pending browser request
func (s *screen) takeBrowse() *url.URL {
	u := s.browse
	s.browse = nil
	return u
}
