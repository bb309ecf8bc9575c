package testutil

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKey matches query, form, header and JSON keys whose values must
// not be committed: login fields and session material.
var sensitiveKey = regexp.MustCompile(`(?i)(password|passwd|secret|token|session|sess_|auth|jwt|bearer|api_?key|credential|email|login)`)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-csrf-token":        true,
	"x-xsrf-token":        true,
}

var (
	jsonStringField = regexp.MustCompile(`("[^"]*")\s*:\s*"[^"]*"`)
	emailAddress    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// SanitizeHAR returns a copy of har with credentials, cookies and session
// tokens replaced by [REDACTED]. Email addresses in bodies are redacted too
// since the dashboard logs in by email.
func SanitizeHAR(har *HARLog) *HARLog {
	out := &HARLog{Entries: make([]HAREntry, len(har.Entries))}

	for i, e := range har.Entries {
		req := e.Request
		req.URL = sanitizeURL(req.URL)
		req.Headers = sanitizeHeaders(req.Headers)
		if req.PostData != nil {
			pd := *req.PostData
			pd.Text = sanitizeBody(pd.Text)
			req.PostData = &pd
		}

		resp := e.Response
		resp.Headers = sanitizeHeaders(resp.Headers)
		if resp.Content.Encoding == "" {
			resp.Content.Text = sanitizeBody(resp.Content.Text)
		}

		out.Entries[i] = HAREntry{Request: req, Response: resp}
	}
	return out
}

func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	changed := false
	for key := range q {
		if sensitiveKey.MatchString(key) {
			q.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sanitizeHeaders(headers []HARHeader) []HARHeader {
	out := make([]HARHeader, len(headers))
	for i, h := range headers {
		out[i] = h
		if sensitiveHeaders[strings.ToLower(h.Name)] || sensitiveKey.MatchString(h.Name) {
			out[i].Value = redacted
		}
	}
	return out
}

func sanitizeBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return body
	}

	switch {
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		body = jsonStringField.ReplaceAllStringFunc(body, func(field string) string {
			m := jsonStringField.FindStringSubmatch(field)
			if !sensitiveKey.MatchString(m[1]) {
				return field
			}
			return m[1] + `: "` + redacted + `"`
		})
	case strings.Contains(trimmed, "=") && !strings.ContainsAny(trimmed, "<\n"):
		if values, err := url.ParseQuery(trimmed); err == nil {
			for key := range values {
				if sensitiveKey.MatchString(key) {
					values.Set(key, redacted)
				}
			}
			body = values.Encode()
		}
	}

	return emailAddress.ReplaceAllString(body, redacted)
}
