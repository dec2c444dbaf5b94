package build

import (
	"time"

	"git.home.luguber.info/inful/postforge/internal/incremental"
)

// Mode selects how much work a pass considers.
type Mode string

const (
	// ModeIncremental rebuilds only what changed since the last commit.
	ModeIncremental Mode = "incremental"
	// ModeFull rebuilds every unit and aggregate.
	ModeFull Mode = "full"
	// ModeSingle renders one unit and leaves aggregates untouched.
	ModeSingle Mode = "single"
)

// Request describes one pass.
type Request struct {
	Mode Mode
	// Unit is the source path rendered in ModeSingle, absolute or relative
	// to the content root.
	Unit string
	// Reason is logged with the pass, e.g. "template change".
	Reason string
}

// Status is the overall outcome of a pass.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Counts tallies per-item results of one kind.
type Counts struct {
	Built   int `json:"built"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Deleted int `json:"deleted"`
}

// Failure is a per-item error that did not abort the pass.
type Failure struct {
	Kind string
	Item string
	Err  error
}

// Result summarizes a pass.
type Result struct {
	PassID string
	Mode   Mode
	Status Status
	// Full is set when every unit and aggregate was rebuilt, either on
	// request or because site inputs changed.
	Full       bool
	FullReason string

	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration

	Changes    incremental.ChangeSet
	Units      Counts
	Aggregates Counts
	Assets     Counts
	Failures   []Failure
	// Generation is the store generation committed by this pass.
	Generation uint64
}

// Built is the total number of artifacts written.
func (r *Result) Built() int { return r.Units.Built + r.Aggregates.Built + r.Assets.Built }

// Failed is the total number of failed items.
func (r *Result) Failed() int { return r.Units.Failed + r.Aggregates.Failed + r.Assets.Failed }

// Deleted is the total number of outputs removed.
func (r *Result) Deleted() int { return r.Units.Deleted + r.Aggregates.Deleted + r.Assets.Deleted }

// Skipped is the total number of items left untouched.
func (r *Result) Skipped() int { return r.Units.Skipped + r.Aggregates.Skipped + r.Assets.Skipped }

func (r *Result) fail(kind, item string, err error) {
	r.Failures = append(r.Failures, Failure{Kind: kind, Item: item, Err: err})
}
