package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// LoadFixture reads testdata/fixtures/<name>.html of the given source
// package.
func LoadFixture(t *testing.T, pkg, name string) string {
	t.Helper()

	data, err := os.ReadFile(fixturePath(pkg, name))
	if err != nil {
		t.Fatalf("Failed to load fixture %s/%s: %v", pkg, name, err)
	}
	return string(data)
}

func fixturePath(pkg, name string) string {
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to source/
	return filepath.Join(baseDir, pkg, "testdata", "fixtures", name+".html")
}
