// Package errors provides the classified error primitives used across postforge.
//
// A ClassifiedError carries a category (scan, parse, render, store, ...), a
// severity and a retry hint next to the usual message and cause. The build
// engine uses severity to decide whether a failure is isolated to one item
// (warning/error) or aborts the pass (fatal).
//
// Example usage:
//
//	err := errors.RenderError("template execution failed").
//		WithContext("unit", unit.ID).
//		WithCause(cause).
//		Build()
package errors
