package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHAR() *HARLog {
	return &HARLog{Entries: []HAREntry{
		{
			Request: HARRequest{
				Method: "POST",
				URL:    "https://app.example.com/auth/login?next=%2Fdashboard&token=abc",
				Headers: []HARHeader{
					{Name: "Cookie", Value: "sid=123; theme=dark"},
					{Name: "Accept", Value: "text/html"},
				},
				PostData: &HARPostData{
					MimeType: "application/json",
					Text:     `{"email":"someone@example.com","password":"hunter2","remember":"yes"}`,
				},
			},
			Response: HARResponse{
				Status:  200,
				Headers: []HARHeader{{Name: "Set-Cookie", Value: "sid=456"}},
				Content: HARContent{MimeType: "text/html", Text: "<p>Hi someone@example.com</p>"},
			},
		},
	}}
}

func TestSanitizeHAR(t *testing.T) {
	got := SanitizeHAR(sampleHAR())
	entry := got.Entries[0]

	assert.Contains(t, entry.Request.URL, "token=%5BREDACTED%5D")
	assert.Contains(t, entry.Request.URL, "next=%2Fdashboard")

	assert.Equal(t, redacted, entry.Request.Headers[0].Value)
	assert.Equal(t, "text/html", entry.Request.Headers[1].Value)
	assert.Equal(t, redacted, entry.Response.Headers[0].Value)

	body := entry.Request.Body()
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "someone@example.com")
	assert.Contains(t, body, `"remember":"yes"`)

	assert.Equal(t, "<p>Hi [REDACTED]</p>", entry.Response.Content.Text)
}

func TestSanitizeHAR_DoesNotMutateInput(t *testing.T) {
	in := sampleHAR()
	_ = SanitizeHAR(in)

	assert.Equal(t, "sid=123; theme=dark", in.Entries[0].Request.Headers[0].Value)
	assert.Contains(t, in.Entries[0].Request.Body(), "hunter2")
}

func TestSanitizeHAR_FormBody(t *testing.T) {
	in := &HARLog{Entries: []HAREntry{{
		Request: HARRequest{
			URL:      "https://app.example.com/login",
			PostData: &HARPostData{Text: "login=me&password=secret&lang=en"},
		},
	}}}

	body := SanitizeHAR(in).Entries[0].Request.Body()

	assert.NotContains(t, body, "secret")
	assert.Contains(t, body, "lang=en")
}

func TestSaveLoadHAR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.har.json")
	require.NoError(t, SaveHAR(path, sampleHAR()))

	got := MustLoadHAR(t, path)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "POST", got.Entries[0].Request.Method)
	assert.Equal(t, 200, got.Entries[0].Response.Status)
}

func TestSanitizeHTML(t *testing.T) {
	page := `<div data-user-name="Jane Roe">jane.roe@corp.example</div>
<script>window.__csrf = "abcdefghijklmnopqrstuvwxyz012345"; document.cookie = "sid=1";</script>
<p>no secrets here: token=short</p>`

	got, found := SanitizeHTML(page)

	assert.NotContains(t, got, "jane.roe@corp.example")
	assert.NotContains(t, got, "Jane Roe")
	assert.NotContains(t, got, "abcdefghijklmnopqrstuvwxyz012345")
	assert.NotContains(t, got, "sid=1")
	assert.Contains(t, got, "token=short")
	assert.Contains(t, got, "user@example.com")

	descs := make([]string, 0, len(found))
	for _, r := range found {
		descs = append(descs, r.Description)
		assert.Equal(t, 1, r.Count, r.Description)
	}
	assert.ElementsMatch(t, []string{"Email address", "Token", "Cookie", "Account attribute"}, descs)
}

func TestSanitizeHTML_Clean(t *testing.T) {
	page := `<div class="row"><span>US</span><span>8.1K</span></div>`

	got, found := SanitizeHTML(page)

	assert.Equal(t, page, got)
	assert.Empty(t, found)
}
