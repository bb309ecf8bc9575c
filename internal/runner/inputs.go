package runner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source/dashboard"
)

var (
	ErrNoDomains            = errors.New("no domains")
	ErrMalformedCredentials = errors.New("credentials must be login:password")
)

// LoadDomains reads one domain per line, trimming whitespace and skipping
// blank lines.
func LoadDomains(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domains: %w", err)
	}
	defer f.Close()

	var domains []string
	sc := bufio.NewScanner(utfbom.SkipOnly(f))
	for sc.Scan() {
		if d := strings.TrimSpace(sc.Text()); d != "" {
			domains = append(domains, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read domains %s: %w", path, err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoDomains, path)
	}
	return domains, nil
}

// LoadCredentials reads login:password from the first line of path. The
// password may itself contain ':'.
func LoadCredentials(path string) (dashboard.Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return dashboard.Credentials{}, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(utfbom.SkipOnly(f))
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return dashboard.Credentials{}, fmt.Errorf("read credentials %s: %w", path, err)
		}
		return dashboard.Credentials{}, fmt.Errorf("%w: %s is empty", ErrMalformedCredentials, path)
	}

	login, password, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
	if !ok || login == "" || password == "" {
		return dashboard.Credentials{}, fmt.Errorf("%w: %s", ErrMalformedCredentials, path)
	}
	return dashboard.Credentials{Login: login, Password: password}, nil
}
