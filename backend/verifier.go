package backend

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/logging"
)

var _ Service = (*Verifier)(nil)

// Subscription delivers backend events until closed
type Subscription struct {
	C <-chan Event

	ch   chan Event
	v    *Verifier
	once sync.Once
}

// Close stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.v.unsubscribe(s)
	})
}

// Verifier checks passphrases against the license user key check. It is the
// prompt's delegate: results come back as events, never as return values.
type Verifier struct {
	store PassphraseRepository

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}
}

// NewVerifier creates a verifier; store may be nil to disable remembering
func NewVerifier(store PassphraseRepository) *Verifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Verifier{
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscribe returns a new subscription; close it when the surface goes away
func (v *Verifier) Subscribe() *Subscription {
	ch := make(chan Event, subscriptionBuffer)
	s := &Subscription{C: ch, ch: ch, v: v}

	v.subsMu.Lock()
	v.subs[s] = struct{}{}
	v.subsMu.Unlock()
	return s
}

func (v *Verifier) unsubscribe(s *Subscription) {
	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	if _, ok := v.subs[s]; ok {
		delete(v.subs, s)
		close(s.ch)
	}
}

func (v *Verifier) emit(ev Event) {
	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	logging.Debugf("verifier: emit %s", ev.Type)
	for s := range v.subs {
		select {
		case s.ch <- ev:
		default:
			logging.Warnf("verifier: subscriber full, dropped %s event", ev.Type)
		}
	}
}

func (v *Verifier) spawn(fn func()) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		fn()
	}()
}

// Begin tries remembered passphrases for the license, then for its provider.
// A license that can never be checked is reported as an error up front.
func (v *Verifier) Begin(license *auth.License) {
	if license == nil {
		return
	}
	v.spawn(func() {
		if err := ValidateLicense(license); err != nil {
			logging.Errorf("verifier: license %s: %v", license.ID, err)
			v.emit(Event{Type: EventError, License: license, Err: err})
			return
		}
		if v.tryStored(license) {
			v.emit(Event{Type: EventUnlocked, License: license})
			return
		}
		v.emit(Event{Type: EventPrompt, License: license, Reason: auth.PassphraseNotFound})
	})
}

func (v *Verifier) tryStored(license *auth.License) bool {
	if v.store == nil {
		return false
	}

	byLicense, err := v.store.ForLicense(v.ctx, license.ID)
	if err != nil {
		logging.Warnf("verifier: %v", err)
	}
	byProvider, err := v.store.ForProvider(v.ctx, license.Provider)
	if err != nil {
		logging.Warnf("verifier: %v", err)
	}

	for _, h := range append(byLicense, byProvider...) {
		key, err := hex.DecodeString(h)
		if err != nil {
			continue
		}
		ok, err := CheckUserKey(license, key)
		if err != nil {
			logging.Warnf("verifier: license %s: %v", license.ID, err)
			return false
		}
		if ok {
			logging.Infof("verifier: license %s unlocked with a stored passphrase", license.ID)
			v.remember(license, h)
			return true
		}
	}
	return false
}

// Authenticate checks the passphrase in the background. A rejected
// passphrase produces a new prompt with InvalidPassphrase.
func (v *Verifier) Authenticate(license *auth.License, passphrase string) {
	if license == nil {
		return
	}
	key := UserKey(passphrase)
	v.spawn(func() {
		ok, err := CheckUserKey(license, key)
		switch {
		case err != nil:
			logging.Errorf("verifier: license %s: %v", license.ID, err)
			v.emit(Event{Type: EventError, License: license, Err: err})
		case !ok:
			logging.Infof("verifier: license %s: passphrase rejected", license.ID)
			v.emit(Event{Type: EventPrompt, License: license, Reason: auth.InvalidPassphrase})
		default:
			logging.Infof("verifier: license %s unlocked", license.ID)
			v.remember(license, hex.EncodeToString(key))
			v.emit(Event{Type: EventUnlocked, License: license})
		}
	})
}

// DidCancelAuthentication reports the abandoned license to subscribers
func (v *Verifier) DidCancelAuthentication(license *auth.License) {
	if license == nil {
		return
	}
	logging.Infof("verifier: license %s: authentication cancelled", license.ID)
	v.emit(Event{Type: EventCancelled, License: license})
}

func (v *Verifier) remember(license *auth.License, hash string) {
	if v.store == nil {
		return
	}
	if err := v.store.Add(v.ctx, license.ID, license.Provider, hash); err != nil {
		logging.Warnf("verifier: %v", err)
	}
}

// Stop waits for in-flight checks and closes every subscription
func (v *Verifier) Stop() {
	v.wg.Wait()
	v.cancel()

	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	for s := range v.subs {
		delete(v.subs, s)
		close(s.ch)
	}
}
