package auth

import (
	"net/url"

	"github.com/google/uuid"
)

// Reason is why the verification service needs a passphrase from the user
type Reason int

const (
	// PassphraseNotFound means no stored passphrase matched the license
	PassphraseNotFound Reason = iota
	// InvalidPassphrase means the last submitted passphrase was rejected
	InvalidPassphrase
)

func (r Reason) String() string {
	switch r {
	case PassphraseNotFound:
		return "passphrase_not_found"
	case InvalidPassphrase:
		return "invalid_passphrase"
	default:
		return "unknown"
	}
}

// Link is a link declared by a license document
type Link struct {
	Href  string
	Title string
	Type  string
}

// License is the part of a protected publication license the prompt needs
type License struct {
	ID       string
	Provider string
	Hint     string
	HintLink *Link

	// SupportLinks keeps the order declared by the license
	SupportLinks []Link

	// KeyCheck is the base64 user key check value used by the verifier
	KeyCheck string
	Profile  string
}

// ProviderDisplay returns the host of the provider URI, or the raw provider
// string when it has no host.
func (l *License) ProviderDisplay() string {
	u, err := url.Parse(l.Provider)
	if err != nil || u.Host == "" {
		return l.Provider
	}
	return u.Hostname()
}

// Attempt is one prompt cycle. It is never mutated after construction.
type Attempt struct {
	ID           uuid.UUID
	License      *License
	Reason       Reason
	SupportLinks []SupportLink
}

// NewAttempt creates an attempt, keeping only the support links the opener
// can handle.
func NewAttempt(license *License, reason Reason, opener Opener) *Attempt {
	return &Attempt{
		ID:           uuid.New(),
		License:      license,
		Reason:       reason,
		SupportLinks: ResolveSupportLinks(license.SupportLinks, opener),
	}
}

// Prompt is what a surface renders for an attempt
type Prompt struct {
	AttemptID       uuid.UUID
	Provider        string
	Hint            string
	HasHintLink     bool
	HasSupport      bool
	PreviousFailure bool
}
