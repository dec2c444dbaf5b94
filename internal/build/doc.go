// Package build runs build passes. A pass loads the fingerprint store,
// classifies source units against it, renders the units and aggregates that
// changed, removes stale outputs and commits the new state.
//
// All execution paths (CLI build, watch loop, tests) route through Engine.
package build
