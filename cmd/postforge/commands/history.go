package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of passes to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), cfg, h.Limit, os.Stdout)
}

// RunHistory prints the most recent passes recorded for cfg.
func RunHistory(ctx context.Context, cfg *config.Config, limit int, out io.Writer) error {
	path := cfg.HistoryPath()
	if path == "" {
		return errors.ConfigError("build history is disabled (set build.history_db)").Build()
	}
	st, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	entries, err := st.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No builds recorded")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tMODE\tSTATUS\tBUILT\tSKIPPED\tFAILED\tDELETED\tDURATION\tREVISION")
	for _, e := range entries {
		rev := e.Revision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Mode, e.Status,
			e.Built, e.Skipped, e.Failed, e.Deleted,
			(time.Duration(e.DurationMS) * time.Millisecond).String(), rev)
	}
	return tw.Flush()
}
