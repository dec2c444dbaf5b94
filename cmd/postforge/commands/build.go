package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Incremental bool   `short:"i" help:"Rebuild only what changed since the last build"`
	Unit        string `name:"unit" help:"Render a single post (path to its Markdown file); aggregates are left untouched" type:"path"`
	Drafts      bool   `help:"Include draft posts"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Drafts {
		cfg.Build.Drafts = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := RunBuild(ctx, cfg, b.request())
	if err != nil {
		return err
	}
	fmt.Printf("Built %d, skipped %d, failed %d, deleted %d (%s)\n",
		res.Built(), res.Skipped(), res.Failed(), res.Deleted(), res.Duration.Round(time.Millisecond))
	if res.Failed() > 0 {
		return errors.RenderError(fmt.Sprintf("%d item(s) failed to build", res.Failed())).
			WithContext("pass_id", res.PassID).
			Build()
	}
	return nil
}

func (b *BuildCmd) request() build.Request {
	switch {
	case b.Unit != "":
		return build.Request{Mode: build.ModeSingle, Unit: b.Unit, Reason: "command line"}
	case b.Incremental:
		return build.Request{Mode: build.ModeIncremental, Reason: "command line"}
	}
	return build.Request{Mode: build.ModeFull, Reason: "command line"}
}

// RunBuild runs one pass for cfg.
func RunBuild(ctx context.Context, cfg *config.Config, req build.Request) (*build.Result, error) {
	p := newPipeline(cfg, metrics.NoopRecorder{})
	defer p.Close()
	return p.engine.Build(ctx, req)
}
