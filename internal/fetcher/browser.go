package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pricehound/pricehound/internal/config"
)

// browserPager drives the one shared Chromium page behind the gateway. All
// navigations reuse the same page so cookies and the anti-detection init
// script persist across the run.
type browserPager struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      *config.BrowserConfig
	logger   *slog.Logger
}

// newBrowserPager launches Chromium, connects, and prepares the single
// stealth page with the configured identity.
func newBrowserPager(cfg *config.BrowserConfig, logger *slog.Logger) (*browserPager, error) {
	l := launchChromium(cfg)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	// stealth.Page injects the automation-suppression script before any site
	// script runs on the page.
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("create stealth page: %w", err)
	}

	if err := applyIdentity(page, cfg); err != nil {
		_ = page.Close()
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("apply browser identity: %w", err)
	}

	logger.Info("browser session ready",
		"headless", cfg.Headless,
		"viewport", fmt.Sprintf("%dx%d", cfg.ViewportWidth, cfg.ViewportHeight),
	)

	return &browserPager{
		launcher: l,
		browser:  browser,
		page:     page,
		cfg:      cfg,
		logger:   logger.With("component", "browser"),
	}, nil
}

// Load performs one navigation and returns the document status plus rendered
// HTML. The status comes from the main-document network response; a page that
// renders without ever answering the document request reports status 0.
func (bp *browserPager) Load(ctx context.Context, url string) (int, []byte, error) {
	page := bp.page.Context(ctx).Timeout(bp.cfg.NavTimeout)

	var status int
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = int(e.Response.Status)
		return true
	})

	if err := page.Navigate(url); err != nil {
		return 0, nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	waitResponse()

	if err := page.WaitLoad(); err != nil {
		return 0, nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	// The endpoints render their JSON inside a <pre> node; wait briefly for
	// it, but fall through to whatever the document holds when it never shows.
	if _, err := page.Timeout(bp.cfg.SelectorTimeout).Element("pre"); err != nil {
		bp.logger.Debug("no pre node, using document body", "url", url)
	}

	html, err := page.HTML()
	if err != nil {
		return 0, nil, fmt.Errorf("read page html: %w", err)
	}

	return status, []byte(html), nil
}

// LoadHomepage navigates to the site root and runs the discovery rituals:
// dismiss the cookie-consent dialog and expand the category navigation menu
// so the full link set is in the DOM. Both are best-effort; sites move these
// controls around and their absence is not an error.
func (bp *browserPager) LoadHomepage(ctx context.Context, url string) ([]byte, error) {
	page := bp.page.Context(ctx).Timeout(bp.cfg.NavTimeout)

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate homepage: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait homepage load: %w", err)
	}

	bp.ritual(page, "dismiss consent", dismissConsentJS)
	bp.ritual(page, "open navigation menu", openMenuJS)

	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		bp.logger.Debug("homepage never settled, taking snapshot anyway", "error", err)
	}
	if bp.cfg.SettleDelay > 0 {
		if err := sleepContext(ctx, bp.cfg.SettleDelay); err != nil {
			return nil, err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read homepage html: %w", err)
	}
	return []byte(html), nil
}

// ritual runs one best-effort UI interaction and logs the outcome at debug.
func (bp *browserPager) ritual(page *rod.Page, name, js string) {
	if _, err := page.Eval(js); err != nil {
		bp.logger.Debug("homepage ritual skipped", "ritual", name, "error", err)
		return
	}
	bp.logger.Debug("homepage ritual done", "ritual", name)
}

// Close releases the page, the browser, and the launcher state, in that
// order. Errors on the page are ignored; the browser teardown wins.
func (bp *browserPager) Close() error {
	_ = bp.page.Close()
	err := bp.browser.Close()
	bp.launcher.Cleanup()
	bp.logger.Info("browser session closed")
	return err
}
