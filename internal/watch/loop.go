package watch

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
)

// State is the loop's position in the Idle -> Debouncing -> Building cycle.
type State int32

const (
	StateIdle State = iota
	StateDebouncing
	StateBuilding
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateBuilding:
		return "building"
	}
	return "stopped"
}

// Builder runs one pass.
type Builder interface {
	Build(ctx context.Context, req build.Request) (*build.Result, error)
}

// ReloadFunc returns a fresh Builder after the configuration file changed.
type ReloadFunc func(ctx context.Context) (Builder, error)

// PassFunc observes every finished pass. gen is the live-reload generation
// after the pass; it only advances when the pass produced output.
type PassFunc func(gen uint64, res *build.Result, err error)

// LoopConfig tunes debouncing.
type LoopConfig struct {
	// Quiet is the window without events after which a pass starts.
	Quiet time.Duration
	// MaxDelay caps how long a steady stream of events can postpone a pass.
	MaxDelay time.Duration
}

// Loop consumes change events and drives the builder. At most one pass is
// in flight; events arriving during a pass open a new debounce cycle once
// it completes.
type Loop struct {
	cfg        LoopConfig
	events     <-chan Event
	classifier *Classifier
	recorder   metrics.Recorder
	reload     ReloadFunc
	observers  []PassFunc

	mu      sync.Mutex
	builder Builder

	state      atomic.Int32
	generation atomic.Uint64
	passes     atomic.Uint64
}

// NewLoop returns a loop reading events from events.
func NewLoop(b Builder, c *Classifier, events <-chan Event, cfg LoopConfig) *Loop {
	if cfg.Quiet <= 0 {
		cfg.Quiet = 300 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.Quiet {
		cfg.MaxDelay = cfg.Quiet
	}
	return &Loop{
		cfg:        cfg,
		events:     events,
		classifier: c,
		builder:    b,
		recorder:   metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (l *Loop) WithRecorder(r metrics.Recorder) *Loop {
	if r != nil {
		l.recorder = r
	}
	return l
}

// WithReload installs the callback used when the configuration file changes.
func (l *Loop) WithReload(f ReloadFunc) *Loop {
	l.reload = f
	return l
}

// OnPass registers an observer for finished passes.
func (l *Loop) OnPass(f PassFunc) *Loop {
	l.observers = append(l.observers, f)
	return l
}

// State returns the current state.
func (l *Loop) State() State { return State(l.state.Load()) }

// Generation returns the number of passes that produced output.
func (l *Loop) Generation() uint64 { return l.generation.Load() }

// Passes returns the number of passes run, successful or not.
func (l *Loop) Passes() uint64 { return l.passes.Load() }

func (l *Loop) setState(s State) { l.state.Store(int32(s)) }

// batch accumulates the events of one debounce cycle.
type batch struct {
	count  int
	full   bool
	config bool
	reason string
	paths  map[string]struct{}
}

func (b *batch) empty() bool { return b.count == 0 }

func (b *batch) add(ev Event, class Class) {
	b.count++
	if b.paths == nil {
		b.paths = make(map[string]struct{})
	}
	if ev.Path != "" {
		b.paths[ev.Path] = struct{}{}
	}
	switch {
	case ev.Force:
		b.markFull("scheduled full rebuild")
	case class == ClassConfig:
		b.config = true
		b.markFull("configuration changed")
	case class == ClassTemplate:
		b.markFull("template changed")
	case class == ClassStatic:
		b.markFull("static asset changed")
	}
}

func (b *batch) markFull(reason string) {
	if !b.full {
		b.reason = reason
	}
	b.full = true
}

func (b *batch) request() build.Request {
	if b.full {
		return build.Request{Mode: build.ModeFull, Reason: b.reason}
	}
	paths := make([]string, 0, len(b.paths))
	for p := range b.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	reason := "content changed"
	if len(paths) == 1 {
		reason = "changed " + paths[0]
	} else if len(paths) > 1 {
		reason = "changed " + paths[0] + " and " + strconv.Itoa(len(paths)-1) + " more"
	}
	return build.Request{Mode: build.ModeIncremental, Reason: reason}
}

type outcome struct {
	res *build.Result
	err error
}

// Run blocks until ctx is canceled or the event channel is closed. A pass
// in flight at shutdown sees the canceled context and is waited for.
func (l *Loop) Run(ctx context.Context) error {
	var (
		pending batch
		quiet   = newStoppedTimer()
		maxWait = newStoppedTimer()
		done    chan outcome
		events  = l.events
	)
	defer quiet.Stop()
	defer maxWait.Stop()
	l.setState(StateIdle)

	startBuild := func(cause string) {
		stopTimer(quiet)
		stopTimer(maxWait)
		cycle := pending
		pending = batch{}
		if cycle.empty() {
			l.setState(StateIdle)
			return
		}
		if cycle.count > 1 {
			l.recorder.IncCollapsedEvents(cycle.count - 1)
		}
		req := cycle.request()
		slog.Info("Starting watch pass",
			logfields.Mode(string(req.Mode)),
			logfields.Cause(cause),
			logfields.Count(cycle.count),
			slog.String("reason", req.Reason))
		done = make(chan outcome, 1)
		l.setState(StateBuilding)
		go func(ch chan<- outcome, reloadConfig bool) {
			res, err := l.runPass(ctx, req, reloadConfig)
			ch <- outcome{res: res, err: err}
		}(done, cycle.config)
	}

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				l.finish(<-done)
			}
			l.setState(StateStopped)
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				if done == nil {
					l.setState(StateStopped)
					return nil
				}
				continue
			}
			class := ClassContent
			if !ev.Force && l.classifier != nil {
				class = l.classifier.Classify(ev.Path)
				if class == ClassIgnored {
					continue
				}
			}
			l.recorder.IncWatchEvents(1)
			first := pending.empty()
			pending.add(ev, class)
			slog.Debug("Change queued",
				logfields.Path(ev.Path),
				slog.String("op", ev.Op.String()),
				slog.String("class", class.String()))
			if done != nil {
				continue
			}
			resetTimer(quiet, l.cfg.Quiet)
			if first {
				resetTimer(maxWait, l.cfg.MaxDelay)
			}
			l.setState(StateDebouncing)

		case <-quiet.C:
			if done == nil {
				startBuild("quiet")
			}

		case <-maxWait.C:
			if done == nil {
				startBuild("max_delay")
			}

		case out := <-done:
			done = nil
			l.finish(out)
			if events == nil && pending.empty() {
				l.setState(StateStopped)
				return nil
			}
			if pending.empty() {
				l.setState(StateIdle)
				continue
			}
			resetTimer(quiet, l.cfg.Quiet)
			resetTimer(maxWait, l.cfg.MaxDelay)
			l.setState(StateDebouncing)
		}
	}
}

func (l *Loop) runPass(ctx context.Context, req build.Request, reloadConfig bool) (*build.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if reloadConfig && l.reload != nil {
		b, err := l.reload(ctx)
		if err != nil {
			slog.Warn("Configuration reload failed, keeping previous configuration", logfields.Error(err))
		} else {
			l.builder = b
		}
	}
	return l.builder.Build(ctx, req)
}

func (l *Loop) finish(out outcome) {
	l.passes.Add(1)
	if out.err == nil && out.res != nil && out.res.Status != build.StatusCanceled {
		gen := l.generation.Add(1)
		l.recorder.SetGeneration(gen)
	}
	gen := l.generation.Load()
	if out.err != nil {
		slog.Error("Watch pass failed, serving previous output",
			logfields.Generation(gen), logfields.Error(out.err))
	} else if out.res != nil && out.res.Status != build.StatusSuccess {
		slog.Warn("Watch pass finished with failures",
			logfields.Generation(gen),
			slog.String("status", string(out.res.Status)),
			slog.Int("failed", out.res.Failed()))
	}
	for _, f := range l.observers {
		f(gen, out.res, out.err)
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

// stopTimer stops t and drains a pending fire so a later Reset starts clean.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
