package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	cookiejar "github.com/orirawlings/persistent-cookiejar"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/grez-lucas/traffic-scraper/internal/table"
)

const (
	apiDateLayout    = "2006-01-02"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// countriesResponse is the internal API payload for a domain.
type countriesResponse struct {
	Countries []struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	} `json:"countries"`
}

type APIOptions struct {
	// APIURL is the internal countries endpoint.
	APIURL string
	Mode   string
	// JarPath persists captured cookies across runs. Empty keeps them in
	// memory only.
	JarPath  string
	Timeout  time.Duration
	Capturer CookieCapturer
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// APISource replays the dashboard's session cookies against its internal
// API instead of scraping the rendered page.
type APISource struct {
	client   *resty.Client
	jar      *cookiejar.Jar
	persist  bool
	apiURL   *url.URL
	mode     string
	capturer CookieCapturer
	now      func() time.Time
	log      *slog.Logger
}

var _ source.RecordSource = (*APISource)(nil)

func NewAPISource(opts APIOptions) (*APISource, error) {
	apiURL, err := url.Parse(opts.APIURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if opts.Capturer == nil {
		return nil, errors.New("api source needs a cookie capturer")
	}

	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:              opts.JarPath,
		NoPersist:             opts.JarPath == "",
		PersistSessionCookies: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", defaultUserAgent)
	client.SetHeader("accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	a := &APISource{
		client:   client,
		jar:      jar,
		persist:  opts.JarPath != "",
		apiURL:   apiURL,
		mode:     opts.Mode,
		capturer: opts.Capturer,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a, nil
}

func (a *APISource) Fetch(ctx context.Context, domain string) (source.Result, error) {
	fail := func(op string, err error, details string) (source.Result, error) {
		return source.Result{}, &source.SourceError{
			Source:    string(source.KindAPI),
			Domain:    domain,
			Operation: op,
			Cause:     err,
			Details:   details,
		}
	}

	if len(a.jar.Cookies(a.apiURL)) == 0 {
		if err := a.refreshCookies(ctx, domain); err != nil {
			return fail("CaptureCookies", err, "")
		}
	}

	res, err := a.request(ctx, domain)
	if err != nil {
		return fail("Request", err, "")
	}

	if isAuthFailure(res.StatusCode()) {
		a.log.InfoContext(ctx, "api session rejected, capturing cookies again", "domain", domain, "status", res.StatusCode())
		if err := a.refreshCookies(ctx, domain); err != nil {
			return fail("CaptureCookies", err, "")
		}
		if res, err = a.request(ctx, domain); err != nil {
			return fail("Request", err, "")
		}
		if isAuthFailure(res.StatusCode()) {
			return fail("Request", source.ErrSessionExpired, res.Status())
		}
	}

	switch {
	case res.StatusCode() == http.StatusTooManyRequests:
		a.log.WarnContext(ctx, "daily limit reached", "domain", domain)
		return source.LimitReached(), nil
	case res.IsError():
		return fail("Request", fmt.Errorf("unexpected status %d", res.StatusCode()), truncate(res.String(), 200))
	}

	payload, ok := res.Result().(*countriesResponse)
	if !ok || payload == nil {
		return fail("Parse", source.ErrParsingFailed, "empty body")
	}
	if len(payload.Countries) == 0 {
		return source.Empty(), nil
	}

	rec := table.NewRecord(domain)
	for _, c := range payload.Countries {
		if err := rec.Set(c.Name, c.Count); err != nil {
			return fail("Parse", fmt.Errorf("%w: %v", source.ErrParsingFailed, err), "")
		}
	}
	return source.OK(rec), nil
}

func (a *APISource) request(ctx context.Context, domain string) (*resty.Response, error) {
	today := a.now()
	params := map[string]string{
		"target":        domain,
		"date":          today.Format(apiDateLayout),
		"date_compared": monthBefore(today).Format(apiDateLayout),
	}
	if a.mode != "" {
		params["mode"] = a.mode
	}

	return a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(&countriesResponse{}).
		Get(a.apiURL.String())
}

func (a *APISource) refreshCookies(ctx context.Context, domain string) error {
	cookies, err := a.capturer.CaptureCookies(ctx, domain)
	if err != nil {
		return err
	}

	// Stored host-only: the browser may report a Domain the API host does
	// not domain-match, and the jar would drop those.
	a.jar.RemoveAll()
	hostOnly := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cp := *c
		cp.Domain = ""
		hostOnly = append(hostOnly, &cp)
	}
	a.jar.SetCookies(a.apiURL, hostOnly)

	if len(a.jar.Cookies(a.apiURL)) == 0 {
		return fmt.Errorf("%w: no cookies captured for %s", source.ErrSessionExpired, a.apiURL.Host)
	}

	if a.persist {
		if err := a.jar.Save(); err != nil {
			a.log.WarnContext(ctx, "failed to save cookie jar", "err", err)
		}
	}
	return nil
}

// Close saves the cookie jar when persistence is enabled.
func (a *APISource) Close() error {
	if !a.persist {
		return nil
	}
	return a.jar.Save()
}

// monthBefore returns the same day one month earlier, clamped to the last
// day of that month (Mar 31 -> Feb 28), unlike time.AddDate which would
// overflow into March.
func monthBefore(t time.Time) time.Time {
	y, m, d := t.Date()
	firstOfPrev := time.Date(y, m-1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfPrev.AddDate(0, 1, -1).Day()
	return time.Date(y, m-1, min(d, lastDay), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
