// capture-fixtures opens a visible Chrome on the dashboard and saves the
// flattened HTML of each page state the parser tests rely on.
//
// Usage:
//
//	go run ./scripts/capture-fixtures -url=https://app.example.com/user/login
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/browser"
)

type pageCapture struct {
	Name         string
	Instructions string
}

var capturePages = []pageCapture{
	{Name: "login_page", Instructions: "Open the login page (don't log in yet)"},
	{Name: "countries", Instructions: "Log in, open a domain overview and expand the countries dropdown"},
	{Name: "zero_keywords", Instructions: "Open the overview of a domain with 0 keywords"},
	{Name: "limit_reached", Instructions: "Open any overview after the daily limit is used up (or skip)"},
}

func main() {
	startURL := flag.String("url", "", "Page to open first, usually the login URL")
	outDir := flag.String("output", filepath.Join("internal", "scraper", "source", "dashboard", "testdata", "fixtures"), "Fixture directory")
	bin := flag.String("bin", "", "Chrome binary (default: let rod find one)")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	ctx := context.Background()
	b, page, err := browser.Launch(ctx, browser.LaunchOptions{Bin: *bin, Headless: false})
	if err != nil {
		fmt.Fprintf(os.Stderr, "launch chrome: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	if *startURL != "" {
		if err := page.Navigate(*startURL); err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", *startURL, err)
		}
	}

	fmt.Printf("Saving fixtures to %s\n", *outDir)
	fmt.Println("Follow each prompt in the browser, then press ENTER. Type 'skip' or 'quit'.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	saved := 0
	for _, c := range capturePages {
		fmt.Printf("[%s] %s\n> ", c.Name, c.Instructions)
		input, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "quit":
			fmt.Println("Exiting.")
			writeReadme(*outDir, saved)
			return
		case "skip":
			continue
		}

		if err := capture(page, *outDir, c.Name); err != nil {
			fmt.Printf("  error: %v\n\n", err)
			continue
		}
		saved++
	}

	writeReadme(*outDir, saved)
	fmt.Println("Done. Check the fixtures for account details before committing.")
}

func capture(page *rod.Page, dir, name string) error {
	if err := browser.WaitForIFrames(page); err != nil {
		fmt.Printf("  warning: page did not settle: %v\n", err)
	}

	// Screenshot first, flattening rewrites the live DOM.
	if buf, err := page.Screenshot(false, nil); err == nil {
		shot := filepath.Join(dir, name+".png")
		if err := os.WriteFile(shot, buf, 0o644); err != nil {
			fmt.Printf("  warning: save screenshot: %v\n", err)
		}
	}

	html, shadows, iframes, err := browser.FlattenShadowDOM(page)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	path := filepath.Join(dir, name+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return err
	}

	info, _ := page.Info()
	url := ""
	if info != nil {
		url = info.URL
	}
	fmt.Printf("  saved %s (%d shadow roots, %d iframes inlined) from %s\n\n", path, shadows, iframes, url)
	return nil
}

func writeReadme(dir string, saved int) {
	readme := fmt.Sprintf(`# Dashboard fixtures

captured_at: %s
pages: %d

Shadow roots are inlined as <div data-shadow-root data-shadow-host="..."> and
same-origin iframes as <div data-captured-iframe>, so the parser sees one flat
document. Re-capture when the parser tests start failing after a dashboard
redesign.
`, time.Now().Format(time.RFC3339), saved)

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0o644); err != nil {
		fmt.Printf("warning: write README: %v\n", err)
	}
}
