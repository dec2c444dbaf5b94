// Package commands implements the postforge command line.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/history"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
	"git.home.luguber.info/inful/postforge/internal/notify"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"postforge.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site (full rebuild unless -i is given)"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild on changes and serve with live reload"`
	Init    InitCmd    `cmd:"" help:"Initialize a new site"`
	New     NewCmd     `cmd:"" help:"Create a new draft post"`
	Clean   CleanCmd   `cmd:"" help:"Remove the output directory and the build cache"`
	History HistoryCmd `cmd:"" help:"Show recent build passes"`
}

// AfterApply runs after flag parsing and installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors -v first, then POSTFORGE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("POSTFORGE_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// pipeline is an engine plus the resources its hooks hold open.
type pipeline struct {
	engine  *build.Engine
	history *history.Store
	closers []func()
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// newPipeline builds an engine for cfg with history and notification hooks
// enabled by configuration. Hook setup failures are logged and skipped.
func newPipeline(cfg *config.Config, rec metrics.Recorder) *pipeline {
	p := &pipeline{engine: build.NewEngine(cfg).WithRecorder(rec)}

	if path := cfg.HistoryPath(); path != "" {
		st, err := history.Open(path)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(path), logfields.Error(err))
		} else {
			p.history = st
			p.engine.WithHooks(history.NewHook(st, cfg.ContentRoot()))
			p.closers = append(p.closers, func() { _ = st.Close() })
		}
	}

	if url := cfg.Notify.NATSURL; url != "" {
		pub, err := notify.Connect(url, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Pass notifications disabled", logfields.Error(err))
		} else {
			p.engine.WithHooks(pub)
			p.closers = append(p.closers, pub.Close)
		}
	}
	return p
}
