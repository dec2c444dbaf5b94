package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPassID     = "pass_id"
	KeyMode       = "mode"
	KeyUnit       = "unit"
	KeyAggregate  = "aggregate"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyGeneration = "generation"
	KeyCause      = "cause"
	KeyCount      = "count"
	KeyRevision   = "revision"
	KeySubject    = "subject"
	KeyAddr       = "addr"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PassID(id string) slog.Attr      { return slog.String(KeyPassID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Unit(id string) slog.Attr        { return slog.String(KeyUnit, id) }
func Aggregate(key string) slog.Attr  { return slog.String(KeyAggregate, key) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Generation(g uint64) slog.Attr   { return slog.Uint64(KeyGeneration, g) }
func Cause(c string) slog.Attr        { return slog.String(KeyCause, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
