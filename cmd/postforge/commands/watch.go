package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/history"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
	"git.home.luguber.info/inful/postforge/internal/server"
	"git.home.luguber.info/inful/postforge/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Port         int    `short:"p" help:"Development server port (overrides watch.port)"`
	Address      string `help:"Development server address (overrides watch.address)"`
	NoLiveReload bool   `name:"no-livereload" help:"Disable browser live reload"`
	Drafts       bool   `help:"Include draft posts"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, root.Config)
}

func (w *WatchCmd) apply(cfg *config.Config) {
	if w.Port > 0 {
		cfg.Watch.Port = w.Port
	}
	if w.Address != "" {
		cfg.Watch.Address = w.Address
	}
	if w.NoLiveReload {
		off := false
		cfg.Watch.LiveReload = &off
	}
	if w.Drafts {
		cfg.Build.Drafts = true
	}
}

func (w *WatchCmd) run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	w.apply(cfg)

	var (
		rec metrics.Recorder = metrics.NoopRecorder{}
		reg *prom.Registry
	)
	if cfg.Metrics.Enabled {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	live := &livePipeline{p: newPipeline(cfg, rec)}
	defer live.Close()

	srv := server.New(server.Options{
		Root:        cfg.OutputRoot(),
		LiveReload:  cfg.LiveReloadEnabled(),
		Registry:    reg,
		MetricsPath: cfg.Metrics.Path,
		History:     live,
		Recorder:    rec,
	})

	events := make(chan watch.Event, 256)
	roots := watch.Roots{
		Content:   cfg.ContentRoot(),
		Templates: cfg.TemplateRoot(),
		Static:    cfg.StaticRoot(),
		Config:    configPath,
	}
	fw, err := watch.NewFSWatcher(roots, []string{cfg.OutputRoot(), filepath.Dir(cfg.CachePath())}, events)
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	// Incremental so a restart reuses the cache. Changes made meanwhile are
	// already queued on events.
	var base uint64
	res, err := live.Build(ctx, build.Request{Mode: build.ModeIncremental, Reason: "watch start"})
	if err != nil {
		slog.Error("Initial build failed, watching for fixes", logfields.Error(err))
	} else {
		base = 1
	}
	srv.Hub().Publish(base, passFailed(res, err))

	job, err := watch.ScheduleFullRebuild(cfg.FullRebuildInterval(), events)
	if err != nil {
		slog.Warn("Scheduled full rebuild disabled", logfields.Error(err))
	}
	defer func() { _ = job.Stop() }()

	loop := watch.NewLoop(live, watch.NewClassifier(roots), events, watch.LoopConfig{
		Quiet:    cfg.DebounceDuration(),
		MaxDelay: cfg.MaxDelayDuration(),
	}).WithRecorder(rec)
	loop.OnPass(func(gen uint64, res *build.Result, err error) {
		srv.Hub().Publish(base+gen, passFailed(res, err))
	})
	loop.WithReload(func(context.Context) (watch.Builder, error) {
		next, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		w.apply(next)
		live.swap(newPipeline(next, rec))
		slog.Info("Configuration reloaded", logfields.Path(configPath))
		return live, nil
	})

	fmt.Printf("Serving %s at http://%s\n", cfg.OutputRoot(), cfg.ListenAddr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 3)
	var wg sync.WaitGroup
	for _, run := range []func(context.Context) error{fw.Run, loop.Run, func(ctx context.Context) error {
		return srv.ListenAndServe(ctx, cfg.ListenAddr())
	}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

func passFailed(res *build.Result, err error) bool {
	return err != nil || res == nil || res.Status != build.StatusSuccess
}

// livePipeline is the pipeline currently serving watch mode. A
// configuration reload swaps it.
type livePipeline struct {
	mu sync.Mutex
	p  *pipeline
}

func (l *livePipeline) current() *pipeline {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p
}

func (l *livePipeline) swap(next *pipeline) {
	l.mu.Lock()
	old := l.p
	l.p = next
	l.mu.Unlock()
	old.Close()
}

// Build implements watch.Builder.
func (l *livePipeline) Build(ctx context.Context, req build.Request) (*build.Result, error) {
	return l.current().engine.Build(ctx, req)
}

// Recent implements server.PassLister.
func (l *livePipeline) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	p := l.current()
	if p.history == nil {
		return nil, nil
	}
	return p.history.Recent(ctx, limit)
}

func (l *livePipeline) Close() { l.current().Close() }
