package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pyboot/cmd/pyboot/commands"
	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("pyboot"),
		kong.Description("Bootstrap a Python web application: virtual environment, dependencies, server."),
		commands.Vars(),
	)
	if err != nil {
		foundationerrors.NewCLIErrorAdapter(false, nil).
			HandleError(foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "build command line").Build())
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		foundationerrors.NewCLIErrorAdapter(false, nil).
			HandleError(foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid arguments").Build())
	}

	if err := kctx.Run(&commands.Global{}, cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
