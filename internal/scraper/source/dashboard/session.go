// Package dashboard defines the browser session and the record sources for
// the analytics dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/browser"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
)

const (
	sessionSource = "session"

	loginAttempts      = 2
	defaultTypingDelay = 100 * time.Millisecond
)

// Timeouts bounds every browser wait.
type Timeouts struct {
	// Auth is how long to wait after submitting the login form.
	Auth time.Duration
	// Load bounds page loads and waits for data elements.
	Load time.Duration
	// Button bounds the wait for the countries dropdown.
	Button time.Duration
	// Cookies bounds the wait for the API request when capturing cookies.
	Cookies time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Auth:    5 * time.Second,
		Load:    30 * time.Second,
		Button:  10 * time.Second,
		Cookies: 30 * time.Second,
	}
}

type Credentials struct {
	Login    string
	Password string
}

// Session is a logged-in browser tab on the dashboard. It is not safe for
// concurrent use: sources drive the single tab one domain at a time.
type Session struct {
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	loginURL string

	timeouts    Timeouts
	typingDelay time.Duration
	log         *slog.Logger
}

type sessionConfig struct {
	launch      browser.LaunchOptions
	timeouts    Timeouts
	typingDelay time.Duration
	hijacker    func(*rod.Hijack)
	log         *slog.Logger
}

type Option func(*sessionConfig)

func WithHeadless(headless bool) Option {
	return func(c *sessionConfig) {
		c.launch.Headless = headless
	}
}

// WithBin sets the Chrome binary.
func WithBin(bin string) Option {
	return func(c *sessionConfig) {
		c.launch.Bin = bin
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(c *sessionConfig) {
		c.timeouts = t
	}
}

// WithHijacker routes every request of the session through h, for HAR
// replay.
func WithHijacker(h func(*rod.Hijack)) Option {
	return func(c *sessionConfig) {
		c.hijacker = h
	}
}

// WithTypingDelay sets the base pause between keystrokes. Zero types
// without pauses.
func WithTypingDelay(d time.Duration) Option {
	return func(c *sessionConfig) {
		c.typingDelay = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) {
		c.log = l
	}
}

// NewSession launches Chrome and opens a stealth tab. Call Login before
// fetching records.
func NewSession(ctx context.Context, loginURL string, opts ...Option) (*Session, error) {
	cfg := sessionConfig{
		launch:      browser.LaunchOptions{Headless: true},
		timeouts:    DefaultTimeouts(),
		typingDelay: defaultTypingDelay,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b, page, err := browser.Launch(ctx, cfg.launch)
	if err != nil {
		return nil, &source.SourceError{Source: sessionSource, Operation: "Launch", Cause: err}
	}

	s := &Session{
		browser:     b,
		page:        page,
		loginURL:    loginURL,
		timeouts:    cfg.timeouts,
		typingDelay: cfg.typingDelay,
		log:         cfg.log,
	}

	if cfg.hijacker != nil {
		s.router = b.HijackRequests()
		if err := s.router.Add("*", "", cfg.hijacker); err != nil {
			_ = s.Close()
			return nil, &source.SourceError{Source: sessionSource, Operation: "Hijack", Cause: err}
		}
		go s.router.Run()
	}

	return s, nil
}

// Login signs in with creds. If the dashboard is still on the login page
// after Timeouts.Auth, the form is submitted once more before giving up
// with source.ErrInvalidCredentials.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		if err := s.submitLogin(ctx, creds); err != nil {
			return &source.SourceError{Source: sessionSource, Operation: "Login", Cause: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.timeouts.Auth):
		}

		info, err := s.page.Context(ctx).Info()
		if err != nil {
			return &source.SourceError{Source: sessionSource, Operation: "Login", Cause: err}
		}
		if !sameURL(info.URL, s.loginURL) {
			s.log.InfoContext(ctx, "logged in", "url", info.URL, "attempt", attempt)
			return nil
		}

		s.log.WarnContext(ctx, "still on login page", "attempt", attempt)
	}

	return &source.SourceError{
		Source:    sessionSource,
		Operation: "Login",
		Cause:     source.ErrInvalidCredentials,
		Details:   fmt.Sprintf("still on login page after %d attempts", loginAttempts),
	}
}

func (s *Session) submitLogin(ctx context.Context, creds Credentials) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(s.loginURL); err != nil {
		return fmt.Errorf("navigate to login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for login page: %w", err)
	}

	fields := []struct {
		selector string
		label    string
		value    string
	}{
		{SelectorEmailInput, "login", creds.Login},
		{SelectorPasswordInput, "password", creds.Password},
	}
	for _, f := range fields {
		el, err := s.waitElement(page, f.selector, s.timeouts.Load)
		if err != nil {
			return fmt.Errorf("%w: %s field: %v", source.ErrLoginFormNotFound, f.label, err)
		}
		if err := s.typeInto(ctx, el, f.value); err != nil {
			return fmt.Errorf("type %s: %w", f.label, err)
		}
	}

	btn, err := s.waitElement(page, SelectorLoginButton, s.timeouts.Button)
	if err != nil {
		return fmt.Errorf("%w: submit button: %v", source.ErrLoginFormNotFound, err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: click submit: %v", source.ErrLoginFormNotFound, err)
	}
	return nil
}

func (s *Session) typeInto(ctx context.Context, el *rod.Element, text string) error {
	if s.typingDelay <= 0 {
		return browser.TypeFast(el, text)
	}
	return browser.TypeHuman(ctx, el, text, s.typingDelay)
}

// waitElement waits up to d for selector and returns the element detached
// from the timeout.
func (s *Session) waitElement(page *rod.Page, selector string, d time.Duration) (*rod.Element, error) {
	el, err := page.Timeout(d).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", source.ErrTimeout, selector)
		}
		return nil, err
	}
	return el.CancelTimeout(), nil
}

// Close stops request hijacking and closes the browser.
func (s *Session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	return s.browser.Close()
}

func sameURL(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
