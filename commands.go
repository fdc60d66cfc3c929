package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
	"github.com/njyeung/lcpunlock/logging"
	"github.com/njyeung/lcpunlock/tui"
)

var errCancelled = errors.New("authentication cancelled")

// app carries what every subcommand needs once configuration is read
type app struct {
	v       *viper.Viper
	cfg     Config
	logFile io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string
	setDefaults(a.v)

	cmd := &cobra.Command{
		Use:   "lcpunlock",
		Short: "Unlock LCP protected publications with their passphrase.",
		Long: `lcpunlock asks for the passphrase protecting a Readium LCP license,
checks it against the license and remembers it for next time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(a.v, cfgFile); err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			a.cfg = loadConfig(a.v)
			closer, err := logging.SetupFile(a.cfg.LogFile, a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logFile = closer
			logging.Debugf("config: data dir %s", a.cfg.DataDir)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				_ = a.logFile.Close()
			}
		},
	}
	cmd.Version = version
	bindFlags(cmd, a.v, &cfgFile)

	cmd.AddCommand(
		a.unlockCmd(),
		a.infoCmd(),
		a.forgetCmd(),
		a.supportCmd(),
	)
	return cmd
}

func (a *app) unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <license.lcpl>",
		Short: "Ask for the passphrase and unlock the license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			license, err := backend.LoadLicense(args[0])
			if err != nil {
				return err
			}

			store, err := backend.OpenPassphraseStore(cmd.Context(), a.cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			verifier := backend.NewVerifier(store)
			defer verifier.Stop()

			browser := backend.NewChromeBrowser(filepath.Join(a.cfg.DataDir, "chrome-data"), a.cfg.BrowserHeadless)
			defer browser.Stop()

			opener := backend.DetectOpener()

			// the subscription lives exactly as long as the prompt
			sub := verifier.Subscribe()
			defer sub.Close()

			outcome, err := a.runPrompt(cmd, license, verifier, sub, opener, browser)
			if err != nil {
				return err
			}
			switch outcome {
			case tui.OutcomeUnlocked:
				fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s\n", license.ID)
				return nil
			case tui.OutcomeCancelled:
				return errCancelled
			default:
				return fmt.Errorf("license %s was not unlocked", license.ID)
			}
		},
	}
}

func (a *app) runPrompt(cmd *cobra.Command, license *auth.License, service backend.Service, sub *backend.Subscription, opener auth.Opener, browser auth.Browser) (tui.Outcome, error) {
	if a.cfg.Plain || !isTerminal(cmd.InOrStdin()) {
		return tui.RunPlain(license, service, sub, opener, browser, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	p := tea.NewProgram(
		tui.NewModel(license, service, sub, opener, browser),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	final, err := p.Run()
	if err != nil {
		return tui.OutcomeFailed, err
	}
	m, ok := final.(tui.Model)
	if !ok {
		return tui.OutcomeFailed, fmt.Errorf("unexpected model %T", final)
	}
	return m.Outcome(), m.Err()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <license.lcpl>",
		Short: "Show the provider, hint and support links of a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			license, err := backend.LoadLicense(args[0])
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), license, backend.DetectOpener())
			return nil
		},
	}
}

func printInfo(w io.Writer, license *auth.License, opener auth.Opener) {
	fmt.Fprintf(w, "License:  %s\n", license.ID)
	fmt.Fprintf(w, "Provider: %s\n", license.ProviderDisplay())
	if license.Hint != "" {
		fmt.Fprintf(w, "Hint:     %s\n", license.Hint)
	}
	if license.HintLink != nil {
		fmt.Fprintf(w, "Hint page: %s\n", license.HintLink.Href)
	}

	links := auth.ResolveSupportLinks(license.SupportLinks, opener)
	if len(links) == 0 {
		fmt.Fprintln(w, "Support:  none")
		return
	}
	fmt.Fprintln(w, "Support:")
	for _, l := range links {
		fmt.Fprintf(w, "  %-10s %s\n", l.Title, l.URL)
	}
}

func (a *app) forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <license.lcpl>",
		Short: "Delete the passphrases remembered for a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			license, err := backend.LoadLicense(args[0])
			if err != nil {
				return err
			}
			store, err := backend.OpenPassphraseStore(cmd.Context(), a.cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Forget(cmd.Context(), license.ID)
			if err != nil {
				return err
			}
			logging.Infof("forget: license %s: %d passphrase(s) removed", license.ID, n)
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d passphrase(s) for %s\n", n, license.ID)
			return nil
		},
	}
}

func (a *app) supportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "support <license.lcpl>",
		Short: "Contact the license provider's support",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			license, err := backend.LoadLicense(args[0])
			if err != nil {
				return err
			}
			return runSupport(cmd.Context(), license, backend.DetectOpener(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runSupport performs the support action outside of a prompt: a lone link
// is opened, several are offered as a numbered menu
func runSupport(ctx context.Context, license *auth.License, opener auth.Opener, in io.Reader, out io.Writer) error {
	coord := auth.NewCoordinator(nil, opener)
	links := auth.ResolveSupportLinks(license.SupportLinks, opener)
	if len(links) == 0 {
		fmt.Fprintln(out, "This license declares no support link that can be opened here.")
		return nil
	}

	if len(links) == 1 {
		if err := coord.OpenSupportLink(links[0]); err != nil {
			return fmt.Errorf("failed to open %s: %w", links[0].Title, err)
		}
		fmt.Fprintf(out, "Opened %s\n", links[0].Title)
		return nil
	}

	choices := coord.ResolveSupportAction(links)

	for i, c := range choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, c.Label)
	}
	fmt.Fprint(out, "Choice: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(choices) {
		return nil
	}
	if c := choices[n-1]; !c.IsCancel() {
		if err := c.Action(); err != nil {
			return fmt.Errorf("failed to open %s: %w", c.Label, err)
		}
		fmt.Fprintf(out, "Opened %s\n", c.Label)
	}
	return nil
}
