package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
	"github.com/njyeung/lcpunlock/logging"
)

var errVerifierStopped = errors.New("verifier stopped before answering")

// plainScreen is a line-mode auth.Surface for terminals without a full
// screen, or when input is piped
type plainScreen struct {
	out     io.Writer
	browser auth.Browser
	prompt  auth.Prompt
	choices []auth.Choice
}

func (s *plainScreen) Show(p auth.Prompt) {
	s.prompt = p
	title := "Passphrase Required"
	if p.PreviousFailure {
		title = "Incorrect Passphrase"
	}
	fmt.Fprintf(s.out, "\n%s\n", title)
	fmt.Fprintf(s.out, "In order to open it, we need to know the passphrase required by: %s.\n", p.Provider)
	if p.Hint != "" {
		fmt.Fprintf(s.out, "To help you remember it, the following hint is available:\n  %s\n", p.Hint)
	}
}

func (s *plainScreen) Dismiss() {
	s.choices = nil
}

func (s *plainScreen) ShowChoices(choices []auth.Choice) {
	s.choices = choices
}

func (s *plainScreen) ShowBrowser(u *url.URL) {
	if s.browser == nil {
		fmt.Fprintf(s.out, "Hint page: %s\n", u)
		return
	}
	if err := s.browser.OpenInBrowser(u); err != nil {
		logging.Warnf("tui: hint page: %v", err)
		fmt.Fprintf(s.out, "Could not open the hint page, visit %s\n", u)
	}
}

// lineReader reads commands line by line and passphrases without echo when
// input is a terminal
type lineReader struct {
	r  *bufio.Reader
	fd int
	tt bool
}

func newLineReader(in io.Reader) *lineReader {
	lr := &lineReader{r: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		lr.fd = int(f.Fd())
		lr.tt = true
	}
	return lr
}

func (lr *lineReader) line() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (lr *lineReader) secret(out io.Writer) (string, error) {
	if !lr.tt {
		return lr.line()
	}
	b, err := term.ReadPassword(lr.fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RunPlain runs the prompt in line mode until the license is unlocked, the
// user cancels, or the verifier fails. sub must come from service.
func RunPlain(license *auth.License, service backend.Service, sub *backend.Subscription, opener auth.Opener, browser auth.Browser, in io.Reader, out io.Writer) (Outcome, error) {
	sc := &plainScreen{out: out, browser: browser}
	coord := auth.NewCoordinator(sc, opener)
	coord.SetDelegate(service)
	lr := newLineReader(in)

	fmt.Fprintln(out, "Looking for a saved passphrase...")
	service.Begin(license)

	for ev := range sub.C {
		switch ev.Type {
		case backend.EventPrompt:
			coord.Present(ev.License, ev.Reason)
			promptLoop(coord, sc, lr, out)
		case backend.EventUnlocked:
			fmt.Fprintln(out, "License unlocked.")
			return OutcomeUnlocked, nil
		case backend.EventCancelled:
			fmt.Fprintln(out, "Authentication cancelled.")
			return OutcomeCancelled, nil
		case backend.EventError:
			return OutcomeFailed, ev.Err
		}
	}
	return OutcomeFailed, errVerifierStopped
}

// promptLoop reads actions until the coordinator leaves the prompt; read
// errors (EOF included) cancel
func promptLoop(coord *auth.Coordinator, sc *plainScreen, lr *lineReader, out io.Writer) {
	for coord.Prompting() {
		actions := "[p]assphrase"
		if sc.prompt.HasSupport {
			actions += ", [s]upport"
		}
		if sc.prompt.HasHintLink {
			actions += ", [h]int"
		}
		fmt.Fprintf(out, "Action (%s, [c]ancel) [p]: ", actions)

		action, err := lr.line()
		if err != nil {
			coord.Cancel()
			return
		}

		switch strings.ToLower(strings.TrimSpace(action)) {
		case "", "p":
			fmt.Fprint(out, "Passphrase: ")
			passphrase, err := lr.secret(out)
			if err != nil {
				coord.Cancel()
				return
			}
			coord.Submit(passphrase)
			fmt.Fprintln(out, "Verifying passphrase...")
		case "s":
			coord.SupportAction()
			if len(sc.choices) > 0 {
				pickChoice(sc, lr, out)
			}
		case "h":
			coord.ResolveHintAction()
		case "c":
			coord.Cancel()
		default:
			fmt.Fprintf(out, "Unknown action %q\n", action)
		}
	}
}

func pickChoice(sc *plainScreen, lr *lineReader, out io.Writer) {
	choices := sc.choices
	sc.choices = nil
	for i, c := range choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, c.Label)
	}
	fmt.Fprint(out, "Choice: ")

	s, err := lr.line()
	if err != nil {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > len(choices) {
		return
	}
	if c := choices[n-1]; !c.IsCancel() {
		if err := c.Action(); err != nil {
			fmt.Fprintf(out, "Could not open %s\n", c.Label)
			return
		}
		fmt.Fprintf(out, "Opened %s\n", c.Label)
	}
}
