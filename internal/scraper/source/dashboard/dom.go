package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/browser"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
)

// DOMSource reads the countries breakdown from the rendered domain overview.
type DOMSource struct {
	session *Session
	baseURL string
	mode    string
}

var _ source.RecordSource = (*DOMSource)(nil)

// NewDOMSource scrapes through a logged-in session. baseURL is the overview
// URL the domain name is appended to.
func NewDOMSource(s *Session, baseURL, mode string) *DOMSource {
	return &DOMSource{session: s, baseURL: baseURL, mode: mode}
}

func (d *DOMSource) Fetch(ctx context.Context, domain string) (source.Result, error) {
	fail := func(op string, err error) (source.Result, error) {
		return source.Result{}, &source.SourceError{
			Source:    string(source.KindDOM),
			Domain:    domain,
			Operation: op,
			Cause:     err,
		}
	}

	target, err := DomainURL(d.baseURL, domain, d.mode)
	if err != nil {
		return fail("Navigate", err)
	}

	s := d.session
	page := s.page.Context(ctx)
	if err := page.Navigate(target); err != nil {
		return fail("Navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fail("Navigate", err)
	}

	// The quota page replaces the overview entirely, so wait for whichever
	// shows up first.
	limited := false
	header, err := page.Timeout(s.timeouts.Load).Race().
		Element(SelectorKeywordsHeader).
		ElementR("body", LimitReachedPattern).
		Handle(func(*rod.Element) error {
			limited = true
			return nil
		}).
		Do()
	if err != nil {
		return fail("WaitOverview", timeoutErr(err))
	}
	if limited {
		s.log.WarnContext(ctx, "daily limit reached", "domain", domain)
		return source.LimitReached(), nil
	}

	text, err := header.CancelTimeout().Text()
	if err != nil {
		return fail("ReadHeader", err)
	}
	if IsZeroKeywords(text) {
		return source.Empty(), nil
	}

	opened, err := d.openCountries(page)
	if err != nil {
		return fail("OpenCountries", err)
	}
	if !opened {
		s.log.DebugContext(ctx, "countries dropdown not available", "domain", domain)
		return source.Empty(), nil
	}

	if _, err := s.waitElement(page, SelectorCountryRow, s.timeouts.Load); err != nil {
		return fail("WaitCountries", err)
	}
	if err := browser.WaitForIFrames(page); err != nil {
		return fail("WaitCountries", err)
	}

	html, _, _, err := browser.FlattenShadowDOM(page)
	if err != nil {
		return fail("Snapshot", err)
	}

	rec, err := ParseCountryBreakdown(domain, html)
	if err != nil {
		return fail("Parse", err)
	}
	return source.OK(rec), nil
}

// openCountries clicks the countries dropdown. It reports false when the
// dropdown does not become clickable within Timeouts.Button, which the
// dashboard does for domains without a country breakdown.
func (d *DOMSource) openCountries(page *rod.Page) (bool, error) {
	s := d.session

	btn, err := s.waitElement(page, SelectorCountriesToggle, s.timeouts.Button)
	if errors.Is(err, source.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := btn.Timeout(s.timeouts.Button).WaitInteractable(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}

	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click countries dropdown: %w", err)
	}
	return true, nil
}

func timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", source.ErrTimeout, err)
	}
	return err
}
