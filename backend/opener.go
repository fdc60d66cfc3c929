package backend

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/logging"
)

// launchers per GOOS, tried in order
var launchers = map[string][][]string{
	"linux":   {{"xdg-open"}, {"gio", "open"}},
	"freebsd": {{"xdg-open"}},
	"openbsd": {{"xdg-open"}},
	"darwin":  {{"open"}},
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}},
}

// lookPath is swapped in tests
var lookPath = exec.LookPath

// DetectOpener picks how links are opened, once, at startup: a desktop
// launcher when there is one, the clipboard otherwise, nothing as a last
// resort (support links are then hidden).
func DetectOpener() auth.Opener {
	for _, l := range launchers[runtime.GOOS] {
		if path, err := lookPath(l[0]); err == nil {
			logging.Debugf("opener: using %s", path)
			return NewSystemOpener(path, l[1:]...)
		}
	}
	if !clipboard.Unsupported {
		logging.Debugf("opener: no launcher found, copying links to the clipboard")
		return &ClipboardOpener{write: clipboard.WriteAll}
	}
	logging.Warnf("opener: %v", ErrNoOpener)
	return NoopOpener{}
}

// openable reports whether u is a complete link of a scheme we hand off
func openable(u *url.URL) bool {
	if u == nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto", "tel":
		return u.Opaque != "" || u.Path != ""
	default:
		return false
	}
}

// SystemOpener runs the platform launcher with the link as last argument
type SystemOpener struct {
	launcher string
	args     []string
	start    func(name string, args ...string) error
}

// NewSystemOpener creates an opener that runs launcher with args and the link
func NewSystemOpener(launcher string, args ...string) *SystemOpener {
	return &SystemOpener{
		launcher: launcher,
		args:     args,
		start:    startDetached,
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// CanOpen reports whether the launcher should be given u
func (o *SystemOpener) CanOpen(u *url.URL) bool {
	return openable(u)
}

// Open hands u to the launcher without waiting for it
func (o *SystemOpener) Open(u *url.URL) error {
	if !openable(u) {
		return fmt.Errorf("cannot open %q", u)
	}
	args := append(append([]string{}, o.args...), u.String())
	if err := o.start(o.launcher, args...); err != nil {
		return fmt.Errorf("failed to run %s: %w", o.launcher, err)
	}
	logging.Infof("opener: opened %s", u.Scheme)
	return nil
}

// ClipboardOpener "opens" a link by copying it, for headless sessions
type ClipboardOpener struct {
	write func(string) error
}

// CanOpen reports whether u is worth copying
func (o *ClipboardOpener) CanOpen(u *url.URL) bool {
	return openable(u)
}

// Open copies the link target: the address for mail and phone links, the
// full URL otherwise.
func (o *ClipboardOpener) Open(u *url.URL) error {
	if !openable(u) {
		return fmt.Errorf("cannot open %q", u)
	}
	text := u.String()
	switch u.Scheme {
	case "mailto", "tel":
		text = u.Opaque
		if text == "" {
			text = u.Path
		}
	}
	if err := o.write(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	logging.Infof("opener: copied %s link to clipboard", u.Scheme)
	return nil
}

// NoopOpener opens nothing
type NoopOpener struct{}

func (NoopOpener) CanOpen(*url.URL) bool { return false }
func (NoopOpener) Open(*url.URL) error   { return ErrNoOpener }
