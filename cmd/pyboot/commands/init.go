package commands

import (
	"fmt"

	"git.home.luguber.info/inful/pyboot/internal/config"
	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.configPath()
	out := g.stdout()

	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "initialize configuration").
			WithContext("path", path).
			Build()
	}
	_, _ = fmt.Fprintln(out, "Initialized successfully")
	return nil
}
