package table

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record builds a record from alternating column/value pairs.
func record(t *testing.T, domain string, kv ...any) *Record {
	t.Helper()

	rec := NewRecord(domain)
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, rec.Set(kv[i].(string), int64(kv[i+1].(int))))
	}
	return rec
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestAppendRecord_Scenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	// A: fresh file
	require.NoError(t, AppendRecord(record(t, "a.com", "US", 10), path, false))
	assert.Equal(t, []string{"Domains;US", "a.com;10"}, readLines(t, path))

	// B: new column triggers a rewrite with backfill
	require.NoError(t, AppendRecord(record(t, "b.com", "US", 5, "DE", 3), path, false))
	assert.Equal(t, []string{
		"Domains;US;DE",
		"a.com;10;0",
		"b.com;5;3",
	}, readLines(t, path))

	// C: subset of the header appends without touching earlier rows
	require.NoError(t, AppendRecord(record(t, "c.com", "US", 1), path, false))
	assert.Equal(t, []string{
		"Domains;US;DE",
		"a.com;10;0",
		"b.com;5;3",
		"c.com;1;0",
	}, readLines(t, path))
}

func TestAppendRecord_BackfillBothWays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domains;A;B\nw.com;1;2\n"), 0o644))

	require.NoError(t, AppendRecord(record(t, "x", "A", 5, "C", 7), path, false))

	got, err := Load(path, DefaultComma)
	require.NoError(t, err)

	want := &Table{
		Columns: []string{"Domains", "A", "B", "C"},
		Rows: [][]string{
			{"w.com", "1", "2", "0"},
			{"x", "5", "0", "7"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendRecord_FirstWriteTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domains;FR\nold.com;4\n"), 0o644))

	require.NoError(t, AppendRecord(record(t, "a.com", "US", 10), path, true))

	assert.Equal(t, []string{"Domains;US", "a.com;10"}, readLines(t, path))
}

func TestAppendRecord_EmptyFileIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, AppendRecord(record(t, "a.com", "US", 10), path, false))

	assert.Equal(t, []string{"Domains;US", "a.com;10"}, readLines(t, path))
}

func TestAppendRecord_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.csv")

	err := AppendRecord(record(t, "a.com", "US", 10), path, false)

	require.Error(t, err)
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, path, writeErr.Path)
	assert.Equal(t, "a.com", writeErr.Domain)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAppendRecord_MissingDomain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	err := AppendRecord(NewRecord(""), path, false)

	assert.ErrorIs(t, err, ErrMissingDomain)
	assert.NoFileExists(t, path)
}

func TestAppendRecord_CheapPathLeavesRowsUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	// No trailing newline: the row must still land on its own line.
	original := "Domains;US;DE\na.com;10;0\nb.com;5;3"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	require.NoError(t, AppendRecord(record(t, "c.com", "DE", 2), path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original+"\nc.com;0;2\n", string(data))
}

func TestAppendRecord_SkipsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfDomains;US\na.com;10\n"), 0o644))

	require.NoError(t, AppendRecord(record(t, "b.com", "US", 3), path, false))

	lines := readLines(t, path)
	assert.Len(t, lines, 3)
	assert.Equal(t, "b.com;3", lines[2])
}

func TestAppendRecord_RewritePadsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domains;US;DE\na.com;10\n"), 0o644))

	require.NoError(t, AppendRecord(record(t, "b.com", "FR", 1), path, false))

	assert.Equal(t, []string{
		"Domains;US;DE;FR",
		"a.com;10;0;0",
		"b.com;0;0;1",
	}, readLines(t, path))
}

func TestAppendRecord_RewriteRejectsWideRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	original := "Domains;US\na.com;10;99\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	err := AppendRecord(record(t, "b.com", "FR", 1), path, false)
	assert.ErrorIs(t, err, ErrMalformedRow)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, string(data), "file must be left untouched")
}

func TestAppendRecord_RewriteHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domains;US\n"), 0o644))

	require.NoError(t, AppendRecord(record(t, "a.com", "US", 1, "DE", 2), path, false))

	assert.Equal(t, []string{"Domains;US;DE", "a.com;1;2"}, readLines(t, path))
}

func TestAppendRecord_RewriteKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domains;US\na.com;1\n"), 0o600))
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, AppendRecord(record(t, "b.com", "DE", 2), path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, []string{"Domains;US;DE", "a.com;1;0", "b.com;0;2"}, readLines(t, path))
}

func TestAppendRecord_RewriteFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.csv")
	link := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(target, []byte("Domains;US\na.com;1\n"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, AppendRecord(record(t, "b.com", "DE", 2), link, false))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&fs.ModeSymlink, "output should still be a symlink")
	assert.Equal(t, []string{"Domains;US;DE", "a.com;1;0", "b.com;0;2"}, readLines(t, target))
}

func TestAppendRecord_CustomComma(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := Writer{Comma: ','}

	require.NoError(t, w.Append(record(t, "a.com", "US", 1), path, false))
	require.NoError(t, w.Append(record(t, "b.com", "GB", 2), path, false))

	assert.Equal(t, []string{"Domains,US,GB", "a.com,1,0", "b.com,0,2"}, readLines(t, path))
}

func TestAppendRecord_SchemaGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	batches := [][]any{
		{"US", 1},
		{"DE", 2, "US", 3},
		{"FR", 4},
		{},
		{"US", 5, "JP", 6, "DE", 7},
		{"BR", 8, "FR", 9},
	}

	var wantHeader []string
	wantHeader = append(wantHeader, DomainColumn)
	for i, kv := range batches {
		rec := record(t, "d"+string(rune('a'+i))+".com", kv...)
		for _, col := range rec.Columns() {
			if !slices.Contains(wantHeader, col) {
				wantHeader = append(wantHeader, col)
			}
		}
		require.NoError(t, AppendRecord(rec, path, false))

		state, header, err := Probe(path, DefaultComma)
		require.NoError(t, err)
		assert.Equal(t, StatePresent, state)
		assert.Equal(t, wantHeader, header, "header after record %d", i)
	}

	got, err := Load(path, DefaultComma)
	require.NoError(t, err)
	require.Len(t, got.Rows, len(batches))
	for i, row := range got.Rows {
		assert.Len(t, row, len(got.Columns), "row %d", i)
	}
	assert.Equal(t, []string{"df.com", "0", "0", "9", "0", "8"}, got.Rows[5])
}
