package browser

import (
	"time"

	"github.com/go-rod/rod"
)

const (
	domStableWindow = time.Second
	domStableDiff   = 0
)

// WaitForIFrames waits for DOM stability on the page and then on every
// visible iframe, recursively. Frames that cannot be entered are skipped.
func WaitForIFrames(page *rod.Page) error {
	if err := page.WaitDOMStable(domStableWindow, domStableDiff); err != nil {
		return err
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}

	for _, iframe := range iframes {
		if visible, _ := iframe.Visible(); !visible {
			continue
		}

		frame, err := iframe.Frame()
		if err != nil {
			continue
		}

		if err := WaitForIFrames(frame); err != nil {
			return err
		}
	}
	return nil
}
