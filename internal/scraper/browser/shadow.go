package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// flattenDOMJS walks the document depth-first and inlines open shadow roots
// and same-origin iframe documents, so the dashboard's component-rendered
// tables become reachable by plain CSS selectors in a single HTML string.
//
// Shadow content is appended to its host inside
// <div data-shadow-root="true" data-shadow-host="tag">. Iframes are replaced
// by <div data-captured-iframe="true">. Children are flattened before their
// parent is serialized; once a shadow root is cloned, iframe documents
// inside it are no longer live.
const flattenDOMJS = `() => {
	const MAX_DEPTH = 100;
	let shadows = 0;
	let iframes = 0;

	const walk = (node, depth) => {
		if (depth > MAX_DEPTH) return;
		for (const child of Array.from(node.childNodes)) {
			if (child.nodeType === Node.ELEMENT_NODE) visit(child, depth);
		}
	};

	const visit = (el, depth) => {
		if (el.tagName === 'IFRAME') return inlineFrame(el, depth);
		walk(el, depth + 1);
		if (el.shadowRoot) inlineShadow(el, depth);
	};

	const inlineShadow = (host, depth) => {
		const root = host.shadowRoot;
		walk(root, depth + 1);

		const box = document.createElement('div');
		box.setAttribute('data-shadow-root', 'true');
		box.setAttribute('data-shadow-host', host.tagName.toLowerCase());
		for (const child of Array.from(root.childNodes)) {
			try { box.appendChild(child.cloneNode(true)); } catch (e) {}
		}
		host.appendChild(box);
		shadows++;
	};

	const inlineFrame = (frame, depth) => {
		const owner = frame.ownerDocument;
		const box = owner.createElement('div');
		box.setAttribute('data-captured-iframe', 'true');
		box.setAttribute('data-iframe-src', frame.src || '');
		try {
			const doc = frame.contentDocument;
			if (!doc || !doc.body) throw new Error('no contentDocument');
			walk(doc.documentElement, depth + 1);
			box.innerHTML = doc.body.innerHTML;
			iframes++;
		} catch (e) {
			box.setAttribute('data-iframe-error', e.message);
		}
		frame.parentNode.replaceChild(box, frame);
	};

	walk(document.documentElement, 0);

	return JSON.stringify({
		html: document.documentElement.outerHTML,
		shadowCount: shadows,
		iframeCount: iframes
	});
}`

type flattenResult struct {
	HTML        string `json:"html"`
	ShadowCount int    `json:"shadowCount"`
	IframeCount int    `json:"iframeCount"`
}

// FlattenShadowDOM returns the page HTML with shadow roots and iframes
// inlined, plus how many of each were inlined. It modifies the live DOM, so
// call it only right before navigating away or parsing.
//
// If the script cannot run, it falls back to page.HTML() with zero counts.
func FlattenShadowDOM(page *rod.Page) (html string, shadowCount int, iframeCount int, err error) {
	res, evalErr := page.Eval(flattenDOMJS)
	if evalErr == nil {
		var result flattenResult
		if err := json.Unmarshal([]byte(res.Value.Str()), &result); err == nil {
			return result.HTML, result.ShadowCount, result.IframeCount, nil
		}
	}

	html, err = page.HTML()
	if err != nil {
		return "", 0, 0, fmt.Errorf("flatten DOM failed and fallback HTML failed: %w", err)
	}
	return html, 0, 0, nil
}
