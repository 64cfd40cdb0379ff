package commands

// RunCmd implements the default command: setup, then exec the server.
type RunCmd struct{}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	l, err := root.newLauncher(g)
	if err != nil {
		return err
	}
	return l.Run(ctx)
}
