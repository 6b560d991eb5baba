package fetcher

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pricehound/pricehound/internal/config"
)

// launchChromium builds the launcher with the flag set that keeps the
// automated session looking like an ordinary desktop browser.
func launchChromium(cfg *config.BrowserConfig) *launcher.Launcher {
	return launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.ViewportWidth, cfg.ViewportHeight)).
		Set("lang", cfg.AcceptLanguage)
}

// applyIdentity sets the spoofed user agent, language and viewport on the
// shared page before the first navigation.
func applyIdentity(page *rod.Page, cfg *config.BrowserConfig) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if _, err := page.SetExtraHeaders([]string{"Accept-Language", cfg.AcceptLanguage}); err != nil {
		return fmt.Errorf("set extra headers: %w", err)
	}

	return nil
}

// Homepage rituals. Selector lists cover the consent-manager and nav-menu
// variants the site has shipped; each script clicks the first match and
// reports whether anything was there to click.
const dismissConsentJS = `() => {
	const selectors = [
		'#onetrust-accept-btn-handler',
		'button[data-testid="consent-accept"]',
		'button[id*="accept-all"]',
		'[aria-label="Accept all cookies"]',
	];
	for (const sel of selectors) {
		const btn = document.querySelector(sel);
		if (btn) { btn.click(); return true; }
	}
	return false;
}`

const openMenuJS = `() => {
	const selectors = [
		'button[data-testid="menu-button"]',
		'button[aria-label*="menu" i]',
		'button[aria-controls*="navigation"]',
		'nav button',
	];
	for (const sel of selectors) {
		const btn = document.querySelector(sel);
		if (btn) { btn.click(); return true; }
	}
	return false;
}`
