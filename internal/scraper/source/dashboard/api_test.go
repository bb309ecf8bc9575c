package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCookies hands out the cookies in turn, one set per capture.
type countingCookies struct {
	headers []string
	calls   int
}

func (c *countingCookies) CaptureCookies(ctx context.Context, domain string) ([]*http.Cookie, error) {
	h := c.headers[min(c.calls, len(c.headers)-1)]
	c.calls++
	return StaticCookies(h).CaptureCookies(ctx, domain)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
}

func newTestAPISource(t *testing.T, srv *httptest.Server, capturer CookieCapturer) *APISource {
	t.Helper()

	src, err := NewAPISource(APIOptions{
		APIURL:   srv.URL + "/api/v4/countries",
		Mode:     "phrase",
		Timeout:  5 * time.Second,
		Capturer: capturer,
		Now:      fixedNow,
	})
	require.NoError(t, err)
	return src
}

func TestAPISource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		assert.Equal(t, "example.com", q.Get("target"))
		assert.Equal(t, "phrase", q.Get("mode"))
		assert.Equal(t, "2026-03-31", q.Get("date"))
		assert.Equal(t, "2026-02-28", q.Get("date_compared"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"countries":[{"name":"US","count":1200},{"name":"DE","count":3}]}`))
	}))
	defer srv.Close()

	src := newTestAPISource(t, srv, StaticCookies("sid=good"))

	res, err := src.Fetch(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, source.StatusOK, res.Status)
	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"Domains", "US", "DE"}, res.Record.Columns())
	n, _ := res.Record.Int("US")
	assert.Equal(t, int64(1200), n)
}

func TestAPISource_RecapturesOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err != nil || c.Value != "fresh" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"countries":[{"name":"FR","count":7}]}`))
	}))
	defer srv.Close()

	capturer := &countingCookies{headers: []string{"sid=stale", "sid=fresh"}}
	src := newTestAPISource(t, srv, capturer)

	res, err := src.Fetch(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, source.StatusOK, res.Status)
	assert.Equal(t, 2, capturer.calls)

	// Cookies are reused once they work.
	_, err = src.Fetch(context.Background(), "example.org")
	require.NoError(t, err)
	assert.Equal(t, 2, capturer.calls)
}

func TestAPISource_SessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := newTestAPISource(t, srv, StaticCookies("sid=whatever"))

	_, err := src.Fetch(context.Background(), "example.com")

	assert.ErrorIs(t, err, source.ErrSessionExpired)
	var srcErr *source.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "example.com", srcErr.Domain)
	assert.Equal(t, string(source.KindAPI), srcErr.Source)
}

func TestAPISource_LimitReached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := newTestAPISource(t, srv, StaticCookies("sid=1"))

	res, err := src.Fetch(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, source.StatusLimitReached, res.Status)
	assert.Nil(t, res.Record)
}

func TestAPISource_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"countries":[]}`))
	}))
	defer srv.Close()

	src := newTestAPISource(t, srv, StaticCookies("sid=1"))

	res, err := src.Fetch(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, source.StatusEmpty, res.Status)
}

func TestAPISource_PersistsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"countries":[{"name":"US","count":1}]}`))
	}))
	defer srv.Close()

	jarPath := filepath.Join(t.TempDir(), "cookies.json")
	src, err := NewAPISource(APIOptions{
		APIURL:   srv.URL + "/api",
		JarPath:  jarPath,
		Capturer: StaticCookies("sid=1"),
	})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "example.com")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	assert.FileExists(t, jarPath)
}

func TestMonthBefore(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2026-03-31", "2026-02-28"},
		{"2024-03-30", "2024-02-29"},
		{"2026-01-15", "2025-12-15"},
		{"2026-05-31", "2026-04-30"},
	}
	for _, tc := range tests {
		in, err := time.Parse(apiDateLayout, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, monthBefore(in).Format(apiDateLayout), tc.in)
	}
}
