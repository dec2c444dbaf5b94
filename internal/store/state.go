package store

import (
	"maps"
	"time"

	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/fingerprint"
)

// FormatVersion is bumped whenever the persisted State layout changes.
// Stores written with another version are discarded.
const FormatVersion = 1

// UnitRecord is the persisted result of the last successful build of one
// source unit.
type UnitRecord struct {
	Fingerprint       fingerprint.Fingerprint `cbor:"fp"`
	SiteFingerprint   fingerprint.Fingerprint `cbor:"site"`
	OutputFingerprint fingerprint.Fingerprint `cbor:"out_fp,omitempty"`
	// OutputPath is empty for units that produced no artifact (drafts).
	OutputPath string        `cbor:"out,omitempty"`
	Entry      content.Entry `cbor:"entry"`
	BuiltAt    time.Time     `cbor:"built_at"`
}

// AggregateRecord is the persisted result of the last build of one
// aggregate artifact.
type AggregateRecord struct {
	Members           []string                `cbor:"members"`
	Shape             string                  `cbor:"shape,omitempty"`
	OutputPath        string                  `cbor:"out"`
	OutputFingerprint fingerprint.Fingerprint `cbor:"out_fp,omitempty"`
	// Failed marks aggregates whose last render failed; they are retried on
	// the next pass regardless of membership changes.
	Failed  bool      `cbor:"failed,omitempty"`
	BuiltAt time.Time `cbor:"built_at"`
}

// AssetRecord tracks one copied static or content asset.
type AssetRecord struct {
	Fingerprint fingerprint.Fingerprint `cbor:"fp"`
	Source      string                  `cbor:"src"`
}

// State is the complete persisted build state. It is loaded once per
// process, passed into each build pass and replaced by the pass's result.
type State struct {
	Version         int                        `cbor:"version"`
	SiteFingerprint fingerprint.Fingerprint    `cbor:"site"`
	Units           map[string]UnitRecord      `cbor:"units"`
	Aggregates      map[string]AggregateRecord `cbor:"aggregates"`
	Assets          map[string]AssetRecord     `cbor:"assets"`
	Generation      uint64                     `cbor:"generation"`
	UpdatedAt       time.Time                  `cbor:"updated_at"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Version:    FormatVersion,
		Units:      map[string]UnitRecord{},
		Aggregates: map[string]AggregateRecord{},
		Assets:     map[string]AssetRecord{},
	}
}

// Clone returns a copy whose maps can be modified independently.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	cp := *s
	cp.Units = maps.Clone(s.Units)
	cp.Aggregates = maps.Clone(s.Aggregates)
	cp.Assets = maps.Clone(s.Assets)
	cp.normalize()
	return &cp
}

// IsEmpty reports whether the state holds no records at all.
func (s *State) IsEmpty() bool {
	return len(s.Units) == 0 && len(s.Aggregates) == 0 && len(s.Assets) == 0
}

func (s *State) normalize() {
	if s.Units == nil {
		s.Units = map[string]UnitRecord{}
	}
	if s.Aggregates == nil {
		s.Aggregates = map[string]AggregateRecord{}
	}
	if s.Assets == nil {
		s.Assets = map[string]AssetRecord{}
	}
}
