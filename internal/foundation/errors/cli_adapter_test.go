package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"render", RenderError("template failed").Build(), 11},
		{"store", StoreError("commit failed").Build(), 11},
		{"watch", WatchError("cannot watch").Build(), 12},
		{"internal", InternalError("boom").Build(), 10},
		{"wrapped classified", fmt.Errorf("outer: %w", ScanError("root unreadable").Fatal().Build()), 11},
		{"unclassified", stderrors.New("plain"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	err := WrapError(stderrors.New("permission denied"), CategoryScan, "cannot read content root").Fatal().Build()

	assert.Equal(t, "Error: cannot read content root: permission denied", quiet.FormatError(err))
	assert.Equal(t, err.Error(), verbose.FormatError(err))
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("x").Build()))
	assert.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}
