package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
)

// CookieCapturer supplies the session cookies the internal API expects.
type CookieCapturer interface {
	CaptureCookies(ctx context.Context, domain string) ([]*http.Cookie, error)
}

// ParseCookieHeader parses a Cookie request header such as "a=1; b=2". A
// malformed header yields no cookies.
func ParseCookieHeader(header string) []*http.Cookie {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return nil
	}
	return cookies
}

// StaticCookies replays a Cookie header copied from a browser.
type StaticCookies string

func (s StaticCookies) CaptureCookies(context.Context, string) ([]*http.Cookie, error) {
	cookies := ParseCookieHeader(string(s))
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: cookie header holds no cookies", source.ErrSessionExpired)
	}
	return cookies, nil
}

// BrowserCookies opens the domain overview in the session and takes the
// cookies the page sends to the internal API once it calls it.
type BrowserCookies struct {
	Session *Session
	BaseURL string
	Mode    string
	// APIURL is both the URL prefix the page request must match and the
	// URL cookies are read for.
	APIURL string
}

var _ CookieCapturer = (*BrowserCookies)(nil)

func (b *BrowserCookies) CaptureCookies(ctx context.Context, domain string) ([]*http.Cookie, error) {
	s := b.Session

	target, err := DomainURL(b.BaseURL, domain, b.Mode)
	if err != nil {
		return nil, err
	}

	page := s.page.Context(ctx)
	watch := page.Timeout(s.timeouts.Cookies)
	defer watch.CancelTimeout()

	seen := false
	wait := watch.EachEvent(func(e *proto.NetworkRequestWillBeSent) bool {
		seen = strings.HasPrefix(e.Request.URL, b.APIURL)
		return seen
	})

	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}
	wait()

	if !seen {
		return nil, fmt.Errorf("%w: no request to %s from %s", source.ErrTimeout, b.APIURL, target)
	}

	netCookies, err := page.Cookies([]string{b.APIURL})
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return fromNetworkCookies(netCookies), nil
}

func fromNetworkCookies(in []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}
