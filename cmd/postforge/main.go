package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/postforge/cmd/postforge/commands"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("postforge"),
		kong.Description("Incremental static blog builder with a live-reloading development server."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
