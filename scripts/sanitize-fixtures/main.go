// sanitize-fixtures redacts account details from captured dashboard pages.
//
// Usage:
//
//	go run ./scripts/sanitize-fixtures [-dir=...] [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grez-lucas/traffic-scraper/internal/scraper/testutil"
)

func main() {
	dir := flag.String("dir", filepath.Join("internal", "scraper", "source", "dashboard", "testdata", "fixtures"), "Fixture directory")
	dryRun := flag.Bool("dry-run", false, "Report matches without rewriting files")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil || len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no HTML files in %s\n", *dir)
		os.Exit(1)
	}

	failed := false
	for _, f := range files {
		if err := sanitizeFile(f, *dryRun); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f, err)
			failed = true
		}
	}
	if *dryRun {
		fmt.Println("\nDry run, nothing written.")
	}
	if failed {
		os.Exit(1)
	}
}

func sanitizeFile(path string, dryRun bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	clean, found := testutil.SanitizeHTML(string(content))
	name := filepath.Base(path)
	if len(found) == 0 {
		fmt.Printf("%s: clean\n", name)
		return nil
	}

	fmt.Printf("%s:\n", name)
	for _, r := range found {
		fmt.Printf("  - %s: %d\n", r.Description, r.Count)
	}
	if dryRun {
		return nil
	}
	return os.WriteFile(path, []byte(clean), 0o644)
}
