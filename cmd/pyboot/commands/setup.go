package commands

import "fmt"

// SetupCmd implements the 'setup' command.
type SetupCmd struct{}

func (s *SetupCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	l, err := root.newLauncher(g)
	if err != nil {
		return err
	}
	if err := l.Setup(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Environment ready: %s\n", l.Layout().EnvDir)
	return nil
}
