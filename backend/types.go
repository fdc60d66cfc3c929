package backend

import (
	"context"
	"errors"

	"github.com/njyeung/lcpunlock/auth"
)

// Service defines the interface between the prompt and the license
// verification backend
type Service interface {
	auth.Delegate

	// Begin looks for a stored passphrase and either unlocks the license or
	// asks for a prompt through an EventPrompt
	Begin(license *auth.License)

	// Subscribe returns a new event subscription; the caller closes it
	Subscribe() *Subscription

	// Stop waits for in-flight checks and closes every subscription
	Stop()
}

// PassphraseRepository stores hex SHA-256 user keys, never clear passphrases
type PassphraseRepository interface {
	Add(ctx context.Context, licenseID, provider, userKeyHash string) error
	ForLicense(ctx context.Context, licenseID string) ([]string, error)
	ForProvider(ctx context.Context, provider string) ([]string, error)
}

const (
	// BasicProfile is the LCP encryption profile whose user key is a plain SHA-256
	BasicProfile = "http://readium.org/lcp/basic-profile"

	// RelHint and RelSupport are the link relations the prompt uses
	RelHint    = "hint"
	RelSupport = "support"

	// Buffered events per subscription before new ones are dropped
	subscriptionBuffer = 16
)

var (
	ErrNoLicenseID        = errors.New("license has no id")
	ErrUnsupportedProfile = errors.New("unsupported encryption profile")
	ErrMalformedKeyCheck  = errors.New("malformed user key check")
	ErrNoOpener           = errors.New("no way to open links on this system")
)

// EventType represents different backend events
type EventType int

const (
	EventPrompt EventType = iota
	EventUnlocked
	EventCancelled
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventPrompt:
		return "prompt"
	case EventUnlocked:
		return "unlocked"
	case EventCancelled:
		return "cancelled"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent from backend to frontend
type Event struct {
	Type    EventType
	License *auth.License
	Reason  auth.Reason // for EventPrompt
	Err     error       // for EventError
}
