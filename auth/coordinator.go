// Package auth coordinates a passphrase prompt for a protected publication
// license: it decides what a user action on the prompt means and who has to
// hear about it. Passphrase verification itself belongs to the Delegate.
package auth

import (
	"errors"
	"net/url"

	"github.com/njyeung/lcpunlock/logging"
)

var errNothingToOpen = errors.New("no opener for link")

// Delegate receives the outcome of a prompt. Verification failures come back
// as a new Present call with InvalidPassphrase.
type Delegate interface {
	Authenticate(license *License, passphrase string)
	DidCancelAuthentication(license *License)
}

// Opener hands a URI off to whatever the platform uses for its scheme
type Opener interface {
	CanOpen(u *url.URL) bool
	Open(u *url.URL) error
}

// Browser shows a page without leaving the application
type Browser interface {
	OpenInBrowser(u *url.URL) error
}

// Surface renders coordinator state and forwards user input back to it
type Surface interface {
	Show(p Prompt)
	Dismiss()
	ShowChoices(choices []Choice)
	ShowBrowser(u *url.URL)
}

// Coordinator owns the current attempt. All methods must be called from the
// goroutine that drives the surface.
type Coordinator struct {
	surface  Surface
	opener   Opener
	delegate Delegate

	attempt *Attempt
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(surface Surface, opener Opener) *Coordinator {
	return &Coordinator{
		surface: surface,
		opener:  opener,
	}
}

// SetDelegate registers the single listener. The coordinator does not own
// it; pass nil to detach.
func (c *Coordinator) SetDelegate(d Delegate) {
	c.delegate = d
}

// Attempt returns the attempt being prompted, or nil when idle
func (c *Coordinator) Attempt() *Attempt {
	return c.attempt
}

// Prompting reports whether an attempt is waiting for user input
func (c *Coordinator) Prompting() bool {
	return c.attempt != nil
}

// Present starts a new attempt, replacing any current one
func (c *Coordinator) Present(license *License, reason Reason) {
	if license == nil {
		return
	}
	c.attempt = NewAttempt(license, reason, c.opener)
	logging.Debugf("auth: present license=%s reason=%s attempt=%s support=%d",
		license.ID, reason, c.attempt.ID, len(c.attempt.SupportLinks))

	_, hasHint := hintURL(license)
	if c.surface != nil {
		c.surface.Show(Prompt{
			AttemptID:       c.attempt.ID,
			Provider:        license.ProviderDisplay(),
			Hint:            license.Hint,
			HasHintLink:     hasHint,
			HasSupport:      len(c.attempt.SupportLinks) > 0,
			PreviousFailure: reason == InvalidPassphrase,
		})
	}
}

// Submit forwards the passphrase to the delegate and dismisses the surface
// without waiting for the verification result. Empty passphrases are
// forwarded as-is.
func (c *Coordinator) Submit(passphrase string) {
	attempt := c.attempt
	if attempt == nil {
		return
	}
	c.attempt = nil
	logging.Debugf("auth: submit attempt=%s", attempt.ID)

	if c.delegate != nil {
		c.delegate.Authenticate(attempt.License, passphrase)
	}
	c.dismiss()
}

// Cancel tells the delegate the user gave up on this license
func (c *Coordinator) Cancel() {
	attempt := c.attempt
	if attempt == nil {
		return
	}
	c.attempt = nil
	logging.Debugf("auth: cancel attempt=%s", attempt.ID)

	if c.delegate != nil {
		c.delegate.DidCancelAuthentication(attempt.License)
	}
	c.dismiss()
}

// a delegate answering synchronously may already have presented a new
// attempt; that one must stay on screen
func (c *Coordinator) dismiss() {
	if c.attempt == nil && c.surface != nil {
		c.surface.Dismiss()
	}
}

// SupportAction runs ResolveSupportAction on the current attempt and hands
// any resulting menu to the surface.
func (c *Coordinator) SupportAction() {
	if c.attempt == nil {
		return
	}
	choices := c.ResolveSupportAction(c.attempt.SupportLinks)
	if len(choices) > 0 && c.surface != nil {
		c.surface.ShowChoices(choices)
	}
}

// ResolveSupportAction opens a lone link directly and returns nil. With
// several links it returns one choice per link followed by an inert Cancel.
func (c *Coordinator) ResolveSupportAction(links []SupportLink) []Choice {
	switch len(links) {
	case 0:
		return nil
	case 1:
		_ = c.OpenSupportLink(links[0])
		return nil
	}

	choices := make([]Choice, 0, len(links)+1)
	for _, link := range links {
		u := link.URL
		choices = append(choices, Choice{
			Label:  link.Title,
			Action: func() error { return c.open(u) },
		})
	}
	return append(choices, Choice{Label: CancelLabel})
}

// ResolveHintAction shows the hint page in the in-app browser when the
// license declares a usable hint link.
func (c *Coordinator) ResolveHintAction() {
	if c.attempt == nil || c.surface == nil {
		return
	}
	u, ok := hintURL(c.attempt.License)
	if !ok {
		return
	}
	logging.Debugf("auth: hint link %s", u)
	c.surface.ShowBrowser(u)
}

// OpenSupportLink hands a single resolved link to the opener
func (c *Coordinator) OpenSupportLink(link SupportLink) error {
	return c.open(link.URL)
}

func (c *Coordinator) open(u *url.URL) error {
	if c.opener == nil || u == nil {
		return errNothingToOpen
	}
	if err := c.opener.Open(u); err != nil {
		logging.Warnf("auth: could not open %s: %v", u, err)
		return err
	}
	return nil
}

func hintURL(license *License) (*url.URL, bool) {
	if license == nil || license.HintLink == nil {
		return nil, false
	}
	u, ok := parseLink(license.HintLink.Href)
	if !ok || !u.IsAbs() {
		return nil, false
	}
	return u, true
}
