package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
)

func initSite(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "postforge.yaml")
	require.NoError(t, RunInit(cfgPath, false))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfgPath, cfg
}

func writePost(t *testing.T, cfg *config.Config, rel, header string) {
	t.Helper()
	p := filepath.Join(cfg.ContentRoot(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte("---\n"+header+"---\n\nHello **world**.\n"), 0o600))
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv("POSTFORGE_LOG_LEVEL", "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv("POSTFORGE_LOG_LEVEL", "WARN")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false))
	t.Setenv("POSTFORGE_LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, parseLogLevel(false))
}

func TestBuildRequestModes(t *testing.T) {
	assert.Equal(t, build.ModeFull, (&BuildCmd{}).request().Mode)
	assert.Equal(t, build.ModeIncremental, (&BuildCmd{Incremental: true}).request().Mode)
	req := (&BuildCmd{Incremental: true, Unit: "dev/a.md"}).request()
	assert.Equal(t, build.ModeSingle, req.Mode)
	assert.Equal(t, "dev/a.md", req.Unit)
}

func TestRunInitCreatesSite(t *testing.T) {
	cfgPath, cfg := initSite(t)
	for _, dir := range []string{cfg.ContentRoot(), cfg.TemplateRoot(), cfg.StaticRoot()} {
		fi, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}

	err := RunInit(cfgPath, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.NoError(t, RunInit(cfgPath, true))
}

func TestCreatePost(t *testing.T) {
	_, cfg := initSite(t)
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	path, err := CreatePost(cfg, "Dev Notes", "Héllo, World!", []string{"go"}, now, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ContentRoot(), "dev-notes", "hello-world.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	meta, _, err := frontmatter.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Héllo, World!", meta.Title)
	assert.True(t, meta.Draft)
	assert.Equal(t, []string{"go"}, meta.Tags)
	assert.True(t, now.Equal(meta.Date))

	_, err = CreatePost(cfg, "Dev Notes", "Héllo, World!", nil, now, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = CreatePost(cfg, "dev", "!!!", nil, now, false)
	require.Error(t, err)
}

func TestFileSlug(t *testing.T) {
	for in, want := range map[string]string{
		"Hello World":         "hello-world",
		"  Go 1.24 released ": "go-1-24-released",
		"Ça va?":              "ca-va",
		"---":                 "",
		"Straße":              "straße",
	} {
		assert.Equal(t, want, fileSlug(in), in)
	}
}

func TestBuildCleanAndHistory(t *testing.T) {
	_, cfg := initSite(t)
	writePost(t, cfg, "dev/a.md", "title: A\ndate: 2025-01-02\ntags: [go]\n")
	writePost(t, cfg, "life/b.md", "title: B\ndate: 2025-01-03\n")

	res, err := RunBuild(t.Context(), cfg, build.Request{Mode: build.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, build.StatusSuccess, res.Status)
	assert.FileExists(t, filepath.Join(cfg.OutputRoot(), "index.html"))
	assert.FileExists(t, filepath.Join(cfg.OutputRoot(), "dev", "a", "index.html"))

	res, err = RunBuild(t.Context(), cfg, build.Request{Mode: build.ModeIncremental})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Units.Built)

	var out bytes.Buffer
	require.NoError(t, RunHistory(t.Context(), cfg, 10, &out))
	assert.Contains(t, out.String(), "STATUS")
	assert.Contains(t, out.String(), "full")
	assert.Contains(t, out.String(), "incremental")

	require.NoError(t, RunClean(cfg))
	assert.NoDirExists(t, cfg.OutputRoot())
	assert.NoFileExists(t, cfg.CachePath())
}

func TestRunHistoryDisabled(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Build.HistoryDB = ""
	err := RunHistory(t.Context(), cfg, 5, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestWatchFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	(&WatchCmd{Port: 9090, Address: "0.0.0.0", NoLiveReload: true, Drafts: true}).apply(cfg)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr())
	assert.False(t, cfg.LiveReloadEnabled())
	assert.True(t, cfg.Build.Drafts)
}

func TestPassFailed(t *testing.T) {
	assert.False(t, passFailed(&build.Result{Status: build.StatusSuccess}, nil))
	assert.True(t, passFailed(&build.Result{Status: build.StatusPartial}, nil))
	assert.True(t, passFailed(nil, assert.AnError))
}

func TestLivePipelineSwapKeepsServingHistory(t *testing.T) {
	_, cfg := initSite(t)
	writePost(t, cfg, "dev/a.md", "title: A\ndate: 2025-01-02\n")

	live := &livePipeline{p: newPipeline(cfg, nil)}
	t.Cleanup(live.Close)
	_, err := live.Build(t.Context(), build.Request{Mode: build.ModeFull})
	require.NoError(t, err)

	live.swap(newPipeline(cfg, nil))
	entries, err := live.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "full", entries[0].Mode)
}
