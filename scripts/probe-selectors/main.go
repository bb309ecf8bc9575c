// probe-selectors opens a visible Chrome and reports which dashboard
// selectors match on the current page, frame by frame. Run it when the
// vendor regenerates its class names and the scraper stops finding rows.
//
// Usage:
//
//	go run ./scripts/probe-selectors -url=https://app.example.com/user/login
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/browser"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source/dashboard"
)

type probe struct {
	Name     string
	Selector string
}

var probes = []probe{
	{"Email input", dashboard.SelectorEmailInput},
	{"Password input", dashboard.SelectorPasswordInput},
	{"Login button", dashboard.SelectorLoginButton},
	{"Keywords header", dashboard.SelectorKeywordsHeader},
	{"Countries toggle", dashboard.SelectorCountriesToggle},
	{"Country row", dashboard.SelectorCountryRow},
	{"Country name", dashboard.SelectorCountryName},
	{"Count badge", dashboard.SelectorCountBadge},
	{"Count text", dashboard.SelectorCountText},
}

const probeTimeout = 500 * time.Millisecond

func main() {
	startURL := flag.String("url", "", "Page to open first")
	bin := flag.String("bin", "", "Chrome binary (default: let rod find one)")
	flag.Parse()

	b, page, err := browser.Launch(context.Background(), browser.LaunchOptions{Bin: *bin})
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

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Navigate to a page, then press ENTER to probe ('quit' to exit): ")
		input, err := reader.ReadString('\n')
		if err != nil || strings.TrimSpace(strings.ToLower(input)) == "quit" {
			return
		}

		if err := browser.WaitForIFrames(page); err != nil {
			fmt.Printf("warning: page did not settle: %v\n", err)
		}
		if info, err := page.Info(); err == nil {
			fmt.Printf("\nURL: %s\n", info.URL)
		}
		inspectFrame(page, "main", 1)

		body, err := page.HTML()
		if err == nil && dashboard.IsLimitReached(body) {
			fmt.Println("  daily limit page")
		}
		fmt.Println()
	}
}

// inspectFrame probes page and then every child iframe it can reach.
func inspectFrame(page *rod.Page, path string, depth int) {
	indent := strings.Repeat("  ", depth)

	found := 0
	for _, p := range probes {
		els, err := page.Timeout(probeTimeout).Elements(p.Selector)
		if err != nil || len(els) == 0 {
			continue
		}
		fmt.Printf("%sFOUND %-18s x%d\n", indent, p.Name, len(els))
		found++
	}
	if found == 0 {
		fmt.Printf("%s(no known selectors)\n", indent)
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return
	}
	for i, iframe := range iframes {
		label := fmt.Sprintf("iframe[%d]", i)
		if id, _ := iframe.Attribute("id"); id != nil && *id != "" {
			label = "iframe#" + *id
		}
		child := path + " > " + label
		fmt.Printf("%sFRAME %s\n", indent, child)

		frame, err := iframe.Frame()
		if err != nil {
			fmt.Printf("%s  (not accessible: %v)\n", indent, err)
			continue
		}
		inspectFrame(frame, child, depth+1)
	}
}
