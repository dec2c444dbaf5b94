package build

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/graph"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
	"git.home.luguber.info/inful/postforge/internal/output"
	"git.home.luguber.info/inful/postforge/internal/render"
	"git.home.luguber.info/inful/postforge/internal/store"
)

// Renderer turns entries and aggregates into artifacts.
type Renderer interface {
	RenderUnit(ctx context.Context, e content.Entry, body []byte) (render.UnitOutput, error)
	RenderAggregate(ctx context.Context, agg graph.Aggregate, idx *render.Index) (render.Artifact, error)
	StyleSheet() (render.Artifact, error)
}

// RendererFactory builds the renderer for one pass. Category descriptions
// are reloaded every pass so the renderer is too.
type RendererFactory func(cfg *config.Config, cats content.Categories) (Renderer, error)

// DefaultRenderer is the RendererFactory backed by render.HTMLRenderer.
func DefaultRenderer(cfg *config.Config, cats content.Categories) (Renderer, error) {
	return render.New(render.Options{
		Site:             cfg.Site,
		TemplateDir:      cfg.TemplateRoot(),
		PaginationWindow: cfg.Build.PaginationWindow,
		HighlightStyle:   cfg.Build.HighlightStyle,
		Categories:       cats,
	})
}

// Hook observes completed passes. Hooks run after the commit and must not
// block for long.
type Hook interface {
	PassCompleted(ctx context.Context, res *Result)
}

// Engine executes build passes. It serializes passes and keeps the state
// committed by the previous pass in memory.
type Engine struct {
	cfg       *config.Config
	store     *store.Store
	out       *output.Dir
	renderers RendererFactory
	recorder  metrics.Recorder
	hooks     []Hook
	workers   int
	now       func() time.Time

	mu    sync.Mutex
	state *store.State
}

// NewEngine creates an engine for cfg with the default renderer and no
// metrics.
func NewEngine(cfg *config.Config) *Engine {
	compression, err := store.ParseCompression(string(cfg.Build.CacheCompression))
	if err != nil {
		compression = store.CompressionZstd
	}
	workers := cfg.Build.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		cfg:       cfg,
		store:     store.New(cfg.CachePath(), compression),
		out:       output.New(cfg.OutputRoot()),
		renderers: DefaultRenderer,
		recorder:  metrics.NoopRecorder{},
		workers:   workers,
		now:       time.Now,
	}
}

// WithRenderer replaces the renderer factory (for testing).
func (e *Engine) WithRenderer(f RendererFactory) *Engine {
	e.renderers = f
	return e
}

// WithRecorder sets the metrics recorder.
func (e *Engine) WithRecorder(r metrics.Recorder) *Engine {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	e.recorder = r
	return e
}

// WithHooks registers pass observers.
func (e *Engine) WithHooks(h ...Hook) *Engine {
	e.hooks = append(e.hooks, h...)
	return e
}

// WithClock overrides the wall clock used for record timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Store returns the fingerprint store.
func (e *Engine) Store() *store.Store { return e.store }

// Output returns the output directory.
func (e *Engine) Output() *output.Dir { return e.out }

// Build runs one pass against the state committed by the previous pass,
// loading it from the store on first use. Concurrent calls are serialized.
func (e *Engine) Build(ctx context.Context, req Request) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state
	forceFull := false
	if prev == nil {
		loaded, err := e.store.Load()
		if err != nil {
			slog.Warn("Fingerprint store unusable, rebuilding everything",
				logfields.Path(e.store.Path()), logfields.Error(err))
			forceFull = true
		}
		prev = loaded
	}
	if forceFull && req.Mode == ModeIncremental {
		req.Mode = ModeFull
		req.Reason = "fingerprint store discarded"
	}

	next, res, err := e.Run(ctx, prev, req)
	if next != nil {
		e.state = next
	}
	return res, err
}

// Reset drops the in-memory state so the next pass reloads the store.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.state = nil
	e.mu.Unlock()
}

// Run executes one pass from prev and returns the committed state. On error
// or cancellation nothing is committed and the returned state is nil.
func (e *Engine) Run(ctx context.Context, prev *store.State, req Request) (*store.State, *Result, error) {
	if req.Mode == "" {
		req.Mode = ModeIncremental
	}
	p := newPass(e, prev, req)
	next, err := p.run(ctx)
	p.finish(ctx, err)
	if err != nil {
		return nil, p.res, err
	}
	return next, p.res, nil
}

func (e *Engine) validate(req Request) error {
	switch req.Mode {
	case ModeIncremental, ModeFull:
		return nil
	case ModeSingle:
		if req.Unit == "" {
			return errors.ValidationError("single unit builds need a unit path").Build()
		}
		return nil
	}
	return errors.ValidationError("unknown build mode").WithContext("mode", string(req.Mode)).Build()
}
