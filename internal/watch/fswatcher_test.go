package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

func newWatchedSite(t *testing.T) (Roots, string, chan Event) {
	t.Helper()
	dir := t.TempDir()
	roots := Roots{
		Content:   filepath.Join(dir, "content"),
		Templates: filepath.Join(dir, "templates"),
		Static:    filepath.Join(dir, "static"),
		Config:    filepath.Join(dir, "postforge.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(roots.Content, "dev"), 0o750))
	require.NoError(t, os.MkdirAll(roots.Templates, 0o750))
	out := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(out, 0o750))

	events := make(chan Event, 16)
	fw, err := NewFSWatcher(roots, []string{out}, events)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })
	go func() { _ = fw.Run(t.Context()) }()
	return roots, out, events
}

func waitEvent(t *testing.T, events <-chan Event, path string) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return Event{}
		}
	}
}

func assertNoEvent(t *testing.T, events <-chan Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(wait):
	}
}

func TestFSWatcherReportsContentAndTemplateChanges(t *testing.T) {
	roots, _, events := newWatchedSite(t)

	post := filepath.Join(roots.Content, "dev", "a.md")
	require.NoError(t, os.WriteFile(post, []byte("---\ntitle: A\n---\nbody\n"), 0o600))
	waitEvent(t, events, post)

	layout := filepath.Join(roots.Templates, "post.html")
	require.NoError(t, os.WriteFile(layout, []byte("x"), 0o600))
	waitEvent(t, events, layout)

	require.NoError(t, os.WriteFile(roots.Config, []byte("site: {}\n"), 0o600))
	waitEvent(t, events, roots.Config)
}

func TestFSWatcherIgnoresSwapFilesAndOutput(t *testing.T) {
	roots, out, events := newWatchedSite(t)

	require.NoError(t, os.WriteFile(filepath.Join(roots.Content, "dev", ".a.md.swp"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(roots.Content, "dev", "a.md~"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(roots.Config), "notes.txt"), []byte("x"), 0o600))
	assertNoEvent(t, events, 200*time.Millisecond)
}

func TestFSWatcherReportsCategoryFile(t *testing.T) {
	roots, _, events := newWatchedSite(t)
	p := filepath.Join(roots.Content, "dev", ".category.yaml")
	require.NoError(t, os.WriteFile(p, []byte("name: Development\n"), 0o600))
	waitEvent(t, events, p)
}

func TestFSWatcherFollowsNewDirectories(t *testing.T) {
	roots, _, events := newWatchedSite(t)

	dir := filepath.Join(roots.Content, "ops")
	require.NoError(t, os.Mkdir(dir, 0o750))
	waitEvent(t, events, dir)
	// Give the watcher a moment to subscribe to the new directory.
	time.Sleep(100 * time.Millisecond)

	post := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(post, []byte("x"), 0o600))
	waitEvent(t, events, post)
}

func TestFSWatcherMissingContentRootIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFSWatcher(Roots{Content: filepath.Join(dir, "missing")}, nil, make(chan Event, 1))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryWatch))
	assert.True(t, errors.IsFatal(err))
}

func TestShouldIgnore(t *testing.T) {
	for path, want := range map[string]bool{
		"/c/dev/a.md":           false,
		"/c/dev/.category.yaml": false,
		"/c/dev/.hidden.md":     true,
		"/c/dev/a.md~":          true,
		"/c/dev/a.md.swp":       true,
		"/c/dev/a.md.swx":       true,
		"/c/dev/.#a.md":         true,
		"/c/dev/#a.md#":         true,
		"/c/dev/.DS_Store":      true,
		"/c/dev/Thumbs.db":      true,
	} {
		assert.Equal(t, want, shouldIgnore(path), path)
	}
}

func TestScheduleFullRebuildInjectsForcedEvents(t *testing.T) {
	events := make(chan Event, 4)
	job, err := ScheduleFullRebuild(50*time.Millisecond, events)
	require.NoError(t, err)
	t.Cleanup(func() { _ = job.Stop() })

	select {
	case ev := <-events:
		assert.True(t, ev.Force)
	case <-time.After(2 * time.Second):
		t.Fatal("no scheduled event")
	}
}

func TestScheduleFullRebuildDisabled(t *testing.T) {
	job, err := ScheduleFullRebuild(0, make(chan Event, 1))
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, job.Stop())
}
