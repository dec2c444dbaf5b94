package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

// RunInit writes an example configuration and creates the site directories
// it names.
func RunInit(configPath string, force bool) error {
	fmt.Println("Initializing postforge site")
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	for _, dir := range []string{cfg.ContentRoot(), cfg.TemplateRoot(), cfg.StaticRoot()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to create site directory").
				WithContext("path", dir).
				Build()
		}
		fmt.Printf("Created %s\n", filepath.Clean(dir))
	}
	fmt.Println("initialized successfully")
	return nil
}
