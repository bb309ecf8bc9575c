// Package config loads run settings from .env files and the process
// environment into an explicit Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source/dashboard"
	"github.com/grez-lucas/traffic-scraper/internal/table"
)

// Environment variable names.
const (
	EnvLoginURL        = "LOGIN_URL"
	EnvBaseURL         = "BASE_URL"
	EnvAPIURL          = "API_URL"
	EnvDomainsPath     = "DOMAINS_FILENAME"
	EnvCredentialsPath = "CREDENTIALS_FILENAME"
	EnvOutputPath      = "OUTPUT_FILENAME"
	EnvModes           = "MODES"
	EnvMode            = "MODE"
	EnvSource          = "SOURCE"
	EnvDelimiter       = "DELIMITER"
	EnvHeadless        = "HEADLESS"
	EnvChromeBin       = "CHROME_BIN"
	EnvCookieJar       = "COOKIE_JAR"
	EnvCookieHeader    = "COOKIE_HEADER"
	EnvAuthTimeout     = "AUTH_TIMEOUT"
	EnvLoadTimeout     = "LOAD_TIMEOUT"
	EnvButtonTimeout   = "BUTTON_TIMEOUT"
	EnvCookiesTimeout  = "COOKIES_TIMEOUT"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LoginURL string
	BaseURL  string
	APIURL   string

	DomainsPath     string
	CredentialsPath string
	OutputPath      string

	// Modes lists the match modes offered when Mode is empty.
	Modes []string
	Mode  string

	Source    source.Kind
	Delimiter rune

	Headless  bool
	ChromeBin string

	CookieJarPath string
	// CookieHeader, when set, is replayed by the API source instead of
	// capturing cookies from the browser.
	CookieHeader string

	Timeouts dashboard.Timeouts
}

func Default() Config {
	return Config{
		DomainsPath:     "domains.txt",
		CredentialsPath: "credentials.txt",
		OutputPath:      "output.csv",
		Source:          source.KindDOM,
		Delimiter:       table.DefaultComma,
		Headless:        true,
		Timeouts:        dashboard.DefaultTimeouts(),
	}
}

// Load reads envFiles (missing files are skipped) into the environment
// without overriding variables already set, then builds a Config on top of
// Default.
func Load(envFiles ...string) (Config, error) {
	var present []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of
// os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str(EnvLoginURL, &cfg.LoginURL)
	str(EnvBaseURL, &cfg.BaseURL)
	str(EnvAPIURL, &cfg.APIURL)
	str(EnvDomainsPath, &cfg.DomainsPath)
	str(EnvCredentialsPath, &cfg.CredentialsPath)
	str(EnvOutputPath, &cfg.OutputPath)
	str(EnvMode, &cfg.Mode)
	str(EnvChromeBin, &cfg.ChromeBin)
	str(EnvCookieJar, &cfg.CookieJarPath)
	str(EnvCookieHeader, &cfg.CookieHeader)

	if v, ok := lookup(EnvModes); ok {
		cfg.Modes = SplitModes(v)
	}

	var kind string
	str(EnvSource, &kind)
	if kind != "" {
		cfg.Source = source.Kind(strings.ToLower(kind))
	}

	var delim string
	str(EnvDelimiter, &delim)
	if delim != "" {
		r, size := utf8.DecodeRuneInString(delim)
		if size != len(delim) {
			errs = append(errs, fmt.Errorf("%s: must be a single character, got %q", EnvDelimiter, delim))
		} else {
			cfg.Delimiter = r
		}
	}

	if v, ok := lookup(EnvHeadless); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvHeadless, err))
		} else {
			cfg.Headless = b
		}
	}

	dur(EnvAuthTimeout, &cfg.Timeouts.Auth)
	dur(EnvLoadTimeout, &cfg.Timeouts.Load)
	dur(EnvButtonTimeout, &cfg.Timeouts.Button)
	dur(EnvCookiesTimeout, &cfg.Timeouts.Cookies)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("1m30s") and bare seconds ("15").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// SplitModes splits a ';' separated list, dropping blanks.
func SplitModes(v string) []string {
	var modes []string
	for _, m := range strings.Split(v, ";") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, m)
		}
	}
	return modes
}

// NeedsBrowser reports whether the run has to log in through Chrome. Only
// the API source with a static cookie header can skip it.
func (c Config) NeedsBrowser() bool {
	return c.Source != source.KindAPI || c.CookieHeader == ""
}

// Validate checks the settings needed for a run.
func (c Config) Validate() error {
	var errs []error
	need := func(name, v string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	need(EnvDomainsPath, c.DomainsPath)
	need(EnvOutputPath, c.OutputPath)
	if c.NeedsBrowser() {
		need(EnvLoginURL, c.LoginURL)
		need(EnvBaseURL, c.BaseURL)
		need(EnvCredentialsPath, c.CredentialsPath)
	}

	switch c.Source {
	case source.KindDOM:
	case source.KindAPI:
		need(EnvAPIURL, c.APIURL)
	default:
		errs = append(errs, fmt.Errorf("%s: unknown source %q (want %q or %q)", EnvSource, c.Source, source.KindDOM, source.KindAPI))
	}

	if c.Delimiter == 0 || c.Delimiter == '"' || c.Delimiter == '\n' || c.Delimiter == '\r' {
		errs = append(errs, fmt.Errorf("%s: unusable delimiter %q", EnvDelimiter, c.Delimiter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
