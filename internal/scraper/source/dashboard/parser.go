package dashboard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/grez-lucas/traffic-scraper/internal/table"
)

// zeroKeywordsLabels are the keywords header texts, lowercased, shown for a
// domain without data. The dashboard is localized.
var zeroKeywordsLabels = []string{
	"0 keywords",
	"0 ключевых слов",
}

// ParseCountryBreakdown parses the expanded countries dropdown of a domain
// overview page into a record: one column per country, valued by its
// keyword count.
func ParseCountryBreakdown(domain, html string) (*table.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrParsingFailed, err)
	}

	rows := doc.Find(SelectorCountryRow)
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: no country rows found with selector: %s", source.ErrParsingFailed, SelectorCountryRow)
	}

	rec := table.NewRecord(domain)
	var parseErr error

	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		country, count, err := parseCountryRow(row)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		if err := rec.Set(country, count); err != nil {
			parseErr = fmt.Errorf("%w: row %d: %v", source.ErrParsingFailed, i, err)
			return false
		}
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return rec, nil
}

func parseCountryRow(row *goquery.Selection) (string, int64, error) {
	country := strings.TrimSpace(row.Find(SelectorCountryName).First().Text())
	if country == "" {
		return "", 0, fmt.Errorf("%w: missing country name", source.ErrParsingFailed)
	}

	cell := row.Find(SelectorCountBadge).First()
	if cell.Length() == 0 {
		cell = row.Find(SelectorCountText).First()
	}
	if cell.Length() == 0 {
		return "", 0, fmt.Errorf("%w: %s: missing count", source.ErrParsingFailed, country)
	}

	count, err := source.ParseCount(cell.Text())
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", country, err)
	}
	return country, count, nil
}

// IsZeroKeywords reports whether the keywords header says the domain has no
// data.
func IsZeroKeywords(header string) bool {
	header = strings.ToLower(strings.TrimSpace(header))
	for _, label := range zeroKeywordsLabels {
		if header == label {
			return true
		}
	}
	return false
}

// IsLimitReached reports whether html is the daily quota page.
func IsLimitReached(html string) bool {
	return strings.Contains(html, LimitReachedPattern)
}

// DomainURL appends domain to the overview base URL and sets the match mode
// query parameter when mode is not empty.
func DomainURL(base, domain, mode string) (string, error) {
	u, err := url.Parse(base + url.QueryEscape(strings.TrimSpace(domain)))
	if err != nil {
		return "", fmt.Errorf("build domain url: %w", err)
	}
	if mode != "" {
		q := u.Query()
		q.Set("mode", mode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
