package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pyboot/internal/launcher"
	"git.home.luguber.info/inful/pyboot/internal/requirements"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	l, err := root.newLauncher(g)
	if err != nil {
		return err
	}

	report, err := l.Check(ctx)
	if report != nil {
		printReport(g, report)
	}
	return err
}

func printReport(g *Global, report *launcher.CheckReport) {
	out := g.stdout()
	if !report.ManifestFound {
		_, _ = fmt.Fprintf(out, "No %s found, nothing to check\n", launcher.ManifestName)
		return
	}
	for _, u := range report.Unnamed {
		_, _ = fmt.Fprintf(out, "Not verified (line %d): %s\n", u.Line, u.Location)
	}
	if !report.EnvironmentFound {
		_, _ = fmt.Fprintf(out, "Virtual environment %s not found\n", launcher.EnvDirName)
		return
	}
	_, _ = fmt.Fprintf(out, "Declared: %d, installed packages: %d\n", len(report.Declared), report.Installed)
	if len(report.Skipped) > 0 {
		_, _ = fmt.Fprintf(out, "Not required here: %s\n", strings.Join(requirements.Names(report.Skipped), ", "))
	}
	if report.OK() {
		_, _ = fmt.Fprintln(out, "All declared dependencies are installed")
		return
	}
	_, _ = fmt.Fprintf(out, "Missing: %s\n", strings.Join(requirements.Names(report.Missing), ", "))
}
