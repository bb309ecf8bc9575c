package browser

import (
	"os"
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPage connects to a local Chromium and returns a blank page closed via
// t.Cleanup. It skips unless SCRAPER_TEST_MODE=browser.
func setupPage(t *testing.T) *rod.Page {
	t.Helper()

	if os.Getenv("SCRAPER_TEST_MODE") != "browser" {
		t.Skip("Skipping: requires SCRAPER_TEST_MODE=browser")
	}

	browser := rod.New().MustConnect()
	t.Cleanup(func() { browser.MustClose() })

	page := browser.MustPage()
	t.Cleanup(func() { page.MustClose() })

	page.MustNavigate("about:blank").MustWaitLoad()
	return page
}

func TestFlattenShadowDOM_NoShadow(t *testing.T) {
	page := setupPage(t)
	page.MustEval(`() => {
		document.body.innerHTML = '<div id="plain"><p>Hello World</p></div>';
	}`)

	html, shadowCount, iframeCount, err := FlattenShadowDOM(page)

	require.NoError(t, err)
	assert.Equal(t, 0, shadowCount)
	assert.Equal(t, 0, iframeCount)
	assert.Contains(t, html, `id="plain"`)
}

func TestFlattenShadowDOM_CountryRowsInShadow(t *testing.T) {
	page := setupPage(t)
	page.MustEval(`() => {
		document.body.innerHTML = '<kw-table></kw-table>';
		const host = document.querySelector('kw-table');
		host.attachShadow({mode: 'open'}).innerHTML =
			'<div class="row"><span class="country">Germany</span><span class="n">1.2K</span></div>';
	}`)

	html, shadowCount, _, err := FlattenShadowDOM(page)

	require.NoError(t, err)
	assert.Equal(t, 1, shadowCount)
	assert.Contains(t, html, `data-shadow-host="kw-table"`)
	assert.Contains(t, html, "Germany")
	assert.Contains(t, html, "1.2K")
}

func TestFlattenShadowDOM_NestedAndSlotted(t *testing.T) {
	// The inner host is a light DOM child of the outer host; its shadow
	// content must survive even though the outer shadow only holds a slot.
	page := setupPage(t)
	page.MustEval(`() => {
		document.body.innerHTML = '<outer-host><inner-host></inner-host></outer-host>';
		document.querySelector('outer-host').attachShadow({mode: 'open'}).innerHTML =
			'<div class="layout"><slot></slot></div>';
		document.querySelector('inner-host').attachShadow({mode: 'open'}).innerHTML =
			'<table id="breakdown"><tr><td>United States</td></tr></table>';
	}`)

	html, shadowCount, _, err := FlattenShadowDOM(page)

	require.NoError(t, err)
	assert.Equal(t, 2, shadowCount)
	assert.Contains(t, html, `data-shadow-host="inner-host"`)
	assert.Contains(t, html, "United States")
}

func TestFlattenShadowDOM_SameOriginIframe(t *testing.T) {
	page := setupPage(t)
	page.MustEval(`() => new Promise((resolve) => {
		const frame = document.createElement('iframe');
		frame.srcdoc = '<p class="inside">framed</p>';
		frame.onload = () => resolve();
		document.body.appendChild(frame);
	})`)

	html, _, iframeCount, err := FlattenShadowDOM(page)

	require.NoError(t, err)
	assert.Equal(t, 1, iframeCount)
	assert.Contains(t, html, `data-captured-iframe="true"`)
	assert.Contains(t, html, "framed")
}
