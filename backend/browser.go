package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/logging"
)

var _ auth.Browser = (*ChromeBrowser)(nil)

// ChromeBrowser shows hint pages in a Chrome window owned by this process,
// so the user never leaves the prompt for an external browser session
type ChromeBrowser struct {
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	userDataDir string
	headless    bool
}

// NewChromeBrowser creates a browser; Chrome is started on first use
func NewChromeBrowser(userDataDir string, headless bool) *ChromeBrowser {
	return &ChromeBrowser{
		userDataDir: userDataDir,
		headless:    headless,
	}
}

func (b *ChromeBrowser) start() error {
	// separate profile so hint pages never touch the user's own browser data
	if err := os.MkdirAll(b.userDataDir, 0755); err != nil {
		return fmt.Errorf("failed to create user data dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(b.userDataDir),
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(900, 1000),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logging.Debugf),
		chromedp.WithErrorf(logging.Warnf),
	)

	// first Run launches the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("failed to start chrome: %w", err)
	}

	b.ctx = ctx
	b.cancel = cancel
	b.allocCancel = allocCancel
	return nil
}

// OpenInBrowser navigates the hint tab to u and raises it
func (b *ChromeBrowser) OpenInBrowser(u *url.URL) error {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("cannot show %q in the browser", u)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for retry := 0; retry < 2; retry++ {
		if b.ctx == nil {
			if err := b.start(); err != nil {
				return err
			}
		}

		err := chromedp.Run(b.ctx,
			chromedp.Navigate(u.String()),
			page.BringToFront(),
		)
		if err == nil {
			logging.Infof("browser: showing %s", u.Host)
			return nil
		}
		// the user closed the window: start over once
		if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
			b.stopLocked()
			continue
		}
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return fmt.Errorf("browser closed while opening %s", u.Host)
}

// Stop closes the browser
func (b *ChromeBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *ChromeBrowser) stopLocked() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.ctx = nil
	b.cancel = nil
	b.allocCancel = nil
}
