// Package metrics provides build pass and watch loop metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so code never checks for a nil recorder:
//
//	engine := build.NewEngine(cfg, renderer, build.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled the watch command swaps in a PrometheusRecorder
// and serves its registry at the configured path.
package metrics
