package metrics

import "time"

// ResultLabel enumerates per-item results for counters.
type ResultLabel string

const (
	ResultBuilt   ResultLabel = "built"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
	ResultDeleted ResultLabel = "deleted"
)

// PassOutcome is the final status of a build pass.
type PassOutcome string

const (
	OutcomeSuccess  PassOutcome = "success"
	OutcomePartial  PassOutcome = "partial"
	OutcomeFailed   PassOutcome = "failed"
	OutcomeCanceled PassOutcome = "canceled"
)

// Item kinds.
const (
	KindUnit      = "unit"
	KindAggregate = "aggregate"
	KindAsset     = "asset"
)

// Recorder defines observability hooks for passes and the watch loop.
type Recorder interface {
	ObservePassDuration(mode string, d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncPassOutcome(outcome PassOutcome)
	AddItems(kind string, result ResultLabel, n int)
	IncWatchEvents(n int)
	IncCollapsedEvents(n int)
	SetGeneration(g uint64)
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(string, time.Duration)  {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncPassOutcome(PassOutcome)                 {}
func (NoopRecorder) AddItems(string, ResultLabel, int)          {}
func (NoopRecorder) IncWatchEvents(int)                         {}
func (NoopRecorder) IncCollapsedEvents(int)                     {}
func (NoopRecorder) SetGeneration(uint64)                       {}
func (NoopRecorder) SetLiveReloadClients(int)                   {}
