package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func unitIDs(units []Unit) []string {
	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestScan_SortsAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta/last.md", "z")
	writeFile(t, root, "alpha/first.md", "a")
	writeFile(t, root, "alpha/second.markdown", "b")
	writeFile(t, root, "root.md", "r")
	writeFile(t, root, "alpha/image.png", "png")
	writeFile(t, root, "alpha/.hidden.md", "h")
	writeFile(t, root, "alpha/_draft.md", "d")
	writeFile(t, root, "alpha/backup.md~", "b")
	writeFile(t, root, ".git/HEAD.md", "x")
	writeFile(t, root, "_partials/nav.md", "x")
	writeFile(t, root, "alpha/"+CategoryFile, "name: Alpha")

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{
		"alpha/first.md",
		"alpha/second.markdown",
		"root.md",
		"zeta/last.md",
	}, unitIDs(res.Units))

	first := res.Units[0]
	assert.Equal(t, []byte("a"), first.Raw)
	assert.Equal(t, fingerprint.Sum([]byte("a")), first.Fingerprint)
	assert.Equal(t, filepath.Join(root, "alpha", "first.md"), first.Path)
	assert.False(t, first.ModTime.IsZero())
}

func TestScan_EmptyRoot(t *testing.T) {
	res, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Units)
}

func TestScan_MissingRootIsFatal(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryScan, ce.Category())
}

func TestScan_FileRootIsFatal(t *testing.T) {
	p := writeFile(t, t.TempDir(), "post.md", "x")
	_, err := Scan(p)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestScan_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "open/post.md", "o")
	writeFile(t, root, "locked/post.md", "l")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"open/post.md"}, unitIDs(res.Units))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "locked", res.Skipped[0].Prefix)
	assert.True(t, res.Covers("locked/post.md"))
	assert.False(t, res.Covers("open/post.md"))
}

func TestScanResult_Covers(t *testing.T) {
	res := &ScanResult{Skipped: []SkippedPath{{Prefix: "notes"}, {Prefix: "go/broken.md"}}}

	assert.True(t, res.Covers("notes"))
	assert.True(t, res.Covers("notes/a.md"))
	assert.True(t, res.Covers("go/broken.md"))
	assert.False(t, res.Covers("notes2/a.md"))
	assert.False(t, res.Covers("go/fine.md"))

	all := &ScanResult{Skipped: []SkippedPath{{Prefix: ""}}}
	assert.True(t, all.Covers("anything.md"))
}

func TestReadUnit(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "go/post.md", "body")

	u, err := ReadUnit(root, p)
	require.NoError(t, err)
	assert.Equal(t, "go/post.md", u.ID)
	assert.Equal(t, fingerprint.Sum([]byte("body")), u.Fingerprint)

	outside := writeFile(t, t.TempDir(), "other.md", "x")
	_, err = ReadUnit(root, outside)
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryValidation, ce.Category())

	_, err = ReadUnit(root, filepath.Join(root, "go", "gone.md"))
	require.Error(t, err)
}

func TestIsHiddenAndMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		hidden   bool
		markdown bool
	}{
		{"post.md", false, true},
		{"Post.MD", false, true},
		{"long.markdown", false, true},
		{".post.md", true, true},
		{"_index.md", true, true},
		{"post.md~", true, false},
		{"notes.txt", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hidden, IsHidden(tt.name))
			assert.Equal(t, tt.markdown, IsMarkdown(tt.name))
		})
	}
}
