package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// TypeHuman types text into an element one key at a time, sleeping between
// keystrokes. Each pause is base plus a random jitter of up to base, so a
// base of 100ms yields 100-200ms pauses. It stops early if ctx is done.
func TypeHuman(ctx context.Context, el *rod.Element, text string, base time.Duration) error {
	for _, char := range text {
		if err := el.Type(input.Key(char)); err != nil {
			return err
		}

		pause := base
		if base > 0 {
			pause += time.Duration(rand.Int63n(int64(base)))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}

// TypeFast types text without delays. Useful for tests and replay mode.
func TypeFast(el *rod.Element, text string) error {
	keys := make([]input.Key, 0, len(text))
	for _, char := range text {
		keys = append(keys, input.Key(char))
	}
	return el.Type(keys...)
}
