// sanitize-har redacts logins, cookies and session tokens from recorded
// dashboard sessions before they are committed as replay fixtures.
//
// Usage:
//
//	go run ./scripts/sanitize-har -scenario=domain-countries
//	go run ./scripts/sanitize-har -input=session.har.json -output=clean.har.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grez-lucas/traffic-scraper/internal/scraper/testutil"
)

const recordingsDir = "internal/scraper/source/dashboard/testdata/recordings"

// redaction describes one value that differs after sanitizing.
type redaction struct {
	entry  int
	method string
	url    string
	what   string
}

func main() {
	scenario := flag.String("scenario", "", "Recording name under "+recordingsDir)
	inputPath := flag.String("input", "", "Input HAR file")
	outputPath := flag.String("output", "", "Output HAR file (defaults to the input)")
	dryRun := flag.Bool("dry-run", false, "List redactions without writing")
	flag.Parse()

	var in, out string
	switch {
	case *scenario != "":
		in = filepath.Join(recordingsDir, *scenario+".har.json")
		out = in
	case *inputPath != "":
		in, out = *inputPath, *inputPath
		if *outputPath != "" {
			out = *outputPath
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	har, err := testutil.LoadHAR(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", in, err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d entries from %s\n", len(har.Entries), in)

	clean := testutil.SanitizeHAR(har)
	found := diff(har, clean)
	fmt.Printf("Redacted %d values\n", len(found))

	if *dryRun {
		printRedactions(found)
		fmt.Println("\nDry run, nothing written.")
		return
	}

	if err := testutil.SaveHAR(out, clean); err != nil {
		fmt.Fprintf(os.Stderr, "save %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Saved %s\n", out)
}

func diff(orig, clean *testutil.HARLog) []redaction {
	var found []redaction
	for i := range min(len(orig.Entries), len(clean.Entries)) {
		o, c := orig.Entries[i], clean.Entries[i]
		add := func(what string) {
			found = append(found, redaction{entry: i + 1, method: o.Request.Method, url: o.Request.URL, what: what})
		}

		if o.Request.URL != c.Request.URL {
			add("query parameters")
		}
		for j, h := range o.Request.Headers {
			if j < len(c.Request.Headers) && h.Value != c.Request.Headers[j].Value {
				add("request header " + h.Name)
			}
		}
		if o.Request.Body() != c.Request.Body() {
			add("request body")
		}
		for j, h := range o.Response.Headers {
			if j < len(c.Response.Headers) && h.Value != c.Response.Headers[j].Value {
				add("response header " + h.Name)
			}
		}
		if o.Response.Content.Text != c.Response.Content.Text {
			add("response body")
		}
	}
	return found
}

func printRedactions(found []redaction) {
	last := 0
	for _, r := range found {
		if r.entry != last {
			fmt.Printf("\nEntry %d: %s %s\n", r.entry, r.method, shorten(r.url, 80))
			last = r.entry
		}
		fmt.Printf("  - %s\n", r.what)
	}
}

func shorten(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
