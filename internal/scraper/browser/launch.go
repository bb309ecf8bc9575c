// Package browser provides utilities for browser automation with Rod.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// LaunchOptions controls how Chrome is started.
type LaunchOptions struct {
	// Bin is the Chrome binary. Empty lets rod find or download one.
	Bin      string
	Headless bool
}

// Launch starts Chrome with automation fingerprints disabled and opens a
// stealth page. The returned browser owns the process; close it when done.
func Launch(ctx context.Context, opts LaunchOptions) (*rod.Browser, *rod.Page, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", "1920,1080").
		Set("log-level", "3")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("open stealth page: %w", err)
	}

	return b, page, nil
}
