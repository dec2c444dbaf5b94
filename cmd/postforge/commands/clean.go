package commands

import (
	"fmt"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/config"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if err := RunClean(cfg); err != nil {
		return err
	}
	fmt.Printf("Removed %s and %s\n", cfg.OutputRoot(), cfg.CachePath())
	return nil
}

// RunClean removes the output tree and the fingerprint store so the next
// build starts from scratch.
func RunClean(cfg *config.Config) error {
	e := build.NewEngine(cfg)
	if err := e.Output().Clean(); err != nil {
		return err
	}
	return e.Store().Clear()
}
