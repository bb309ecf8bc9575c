package testutil

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const maxRedirects = 10

// Replayer serves recorded responses to a rod page through request
// hijacking.
type Replayer struct {
	exact map[string]*HAREntry
	// byPath indexes entries by URL without query, first occurrence wins.
	byPath map[string]*HAREntry

	passthrough bool
	log         *slog.Logger
}

type ReplayerOption func(*Replayer)

// WithPassthrough lets unmatched requests reach the network instead of
// getting a 404.
func WithPassthrough(enabled bool) ReplayerOption {
	return func(r *Replayer) {
		r.passthrough = enabled
	}
}

// WithLogger logs every match decision at debug level.
func WithLogger(l *slog.Logger) ReplayerOption {
	return func(r *Replayer) {
		r.log = l
	}
}

func NewReplayer(har *HARLog, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exact:  make(map[string]*HAREntry),
		byPath: make(map[string]*HAREntry),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range har.Entries {
		entry := &har.Entries[i]
		r.exact[entry.Request.URL] = entry
		if key, ok := pathKey(entry.Request.URL); ok {
			if _, seen := r.byPath[key]; !seen {
				r.byPath[key] = entry
			}
		}
	}
	return r
}

func pathKey(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return u.Scheme + "://" + u.Host + u.Path, true
}

func (r *Replayer) lookup(raw string) (*HAREntry, bool) {
	if entry, ok := r.exact[raw]; ok {
		return entry, true
	}
	key, ok := pathKey(raw)
	if !ok {
		return nil, false
	}
	entry, ok := r.byPath[key]
	return entry, ok
}

// Middleware returns a hijack handler, for use with
// router.MustAdd("*", replayer.Middleware()).
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(ctx *rod.Hijack) {
		reqURL := ctx.Request.URL().String()

		entry, found := r.lookup(reqURL)
		if !found {
			r.log.Debug("replay miss", "url", reqURL)
			if r.passthrough {
				_ = ctx.LoadResponse(http.DefaultClient, true)
				return
			}
			serveNotFound(ctx)
			return
		}

		entry = r.followRedirects(entry)
		r.log.Debug("replay hit", "url", reqURL, "status", entry.Response.Status)
		serve(ctx, entry.Response)
	}
}

// followRedirects resolves a recorded 3xx chain to its final entry. The
// browser never sees the redirect, so relative links resolve against the
// original URL.
func (r *Replayer) followRedirects(entry *HAREntry) *HAREntry {
	for i := 0; i < maxRedirects; i++ {
		status := entry.Response.Status
		if status < 300 || status >= 400 {
			return entry
		}

		location := header(entry.Response.Headers, "location")
		if location == "" {
			return entry
		}

		next, ok := r.lookup(location)
		if !ok {
			r.log.Debug("redirect target not recorded", "location", location)
			return entry
		}
		entry = next
	}
	return entry
}

func serve(ctx *rod.Hijack, resp HARResponse) {
	body := []byte(resp.Content.Text)
	if resp.Content.Encoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Content.Text); err == nil {
			body = decoded
		}
	}

	var headers []*proto.FetchHeaderEntry
	for _, h := range resp.Headers {
		switch strings.ToLower(h.Name) {
		case "content-encoding", "content-length", "location":
			continue
		}
		headers = append(headers, &proto.FetchHeaderEntry{Name: h.Name, Value: h.Value})
	}
	if header(resp.Headers, "content-type") == "" && resp.Content.MimeType != "" {
		headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: resp.Content.MimeType})
	}

	payload := ctx.Response.Payload()
	payload.ResponseCode = resp.Status
	payload.ResponseHeaders = headers
	payload.Body = body
}

func serveNotFound(ctx *rod.Hijack) {
	payload := ctx.Response.Payload()
	payload.ResponseCode = http.StatusNotFound
	payload.ResponseHeaders = []*proto.FetchHeaderEntry{
		{Name: "Content-Type", Value: "application/json"},
	}
	payload.Body = []byte(`{"error": "no recording found for URL"}`)
}

func header(headers []HARHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Stats reports how many URLs the replayer indexed.
func (r *Replayer) Stats() map[string]int {
	return map[string]int{
		"exact_matches": len(r.exact),
		"path_matches":  len(r.byPath),
	}
}
