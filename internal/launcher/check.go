package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
	"git.home.luguber.info/inful/pyboot/internal/logfields"
	"git.home.luguber.info/inful/pyboot/internal/observability"
	"git.home.luguber.info/inful/pyboot/internal/process"
	"git.home.luguber.info/inful/pyboot/internal/requirements"
)

// CheckReport summarises a dependency check.
type CheckReport struct {
	ManifestFound    bool
	EnvironmentFound bool
	// Declared holds the requirements that apply to the environment.
	Declared []requirements.Requirement
	// Skipped holds conditional requirements whose marker does not apply
	// or could not be evaluated.
	Skipped []requirements.Requirement
	// Unnamed holds URL and path entries that cannot be matched by name.
	Unnamed   []requirements.Unnamed
	Installed int
	Missing   []requirements.Requirement
}

// OK reports whether every declared dependency is installed.
func (r CheckReport) OK() bool {
	return len(r.Missing) == 0
}

// pipPackage is one entry of `pip list --format=json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// markerScript evaluates PEP 508 markers with the environment's own
// interpreter. pip vendors packaging when it is not installed directly.
const markerScript = `import json, sys
try:
    from packaging.markers import Marker
except ImportError:
    from pip._vendor.packaging.markers import Marker
print(json.dumps([Marker(m).evaluate() for m in sys.argv[1:]]))
`

// Check verifies that every distribution declared in the manifest is
// installed in the environment. It never installs anything. The report is
// returned with any error once the manifest has been found.
func (l *Launcher) Check(ctx context.Context) (*CheckReport, error) {
	ctx = observability.WithStep(ctx, StepCheck)
	report := &CheckReport{}

	if !isFile(l.layout.Manifest) {
		observability.InfoContext(ctx, "No "+ManifestName+" found, nothing to check", logfields.Path(l.layout.Manifest))
		return report, nil
	}
	report.ManifestFound = true

	manifest, err := requirements.ParseFile(l.layout.Manifest)
	if err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "parse "+ManifestName).
			Fatal().
			WithContext("step", StepCheck).
			Build()
	}
	report.Unnamed = manifest.Unnamed
	for _, u := range manifest.Unnamed {
		observability.InfoContext(ctx, "Cannot verify entry without a distribution name, skipping",
			slog.String("location", u.Location),
			slog.Int("line", u.Line))
	}

	if !isDir(l.layout.EnvDir) {
		return report, foundationerrors.EnvironmentError("virtual environment not found, run `pyboot setup` first").
			WithContext("path", l.layout.EnvDir).
			Build()
	}
	report.EnvironmentFound = true
	report.Declared, report.Skipped = l.applicable(ctx, manifest.Requirements)

	installed, err := l.installedPackages(ctx)
	if err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryInstall, "list installed packages").
			Fatal().
			WithContext("step", StepCheck).
			Build()
	}
	report.Installed = len(installed)
	report.Missing = requirements.Missing(report.Declared, installed)

	for _, req := range report.Missing {
		observability.WarnContext(ctx, "Declared dependency not installed",
			logfields.Package(req.Name),
			slog.Int("line", req.Line))
	}
	if !report.OK() {
		names := requirements.Names(report.Missing)
		return report, foundationerrors.InstallError(fmt.Sprintf("%d declared dependencies missing: %s", len(names), strings.Join(names, ", "))).
			WithContext("step", StepCheck).
			WithContext("missing", names).
			Build()
	}

	observability.InfoContext(ctx, "All declared dependencies installed",
		slog.Int("declared", len(report.Declared)),
		slog.Int("installed", report.Installed))
	return report, nil
}

// applicable splits reqs into those that apply to the environment and the
// conditional ones that do not. When markers cannot be evaluated every
// conditional requirement is skipped.
func (l *Launcher) applicable(ctx context.Context, reqs []requirements.Requirement) (applies, skipped []requirements.Requirement) {
	var markers []string
	for _, r := range reqs {
		if r.Conditional() && !slices.Contains(markers, r.Marker) {
			markers = append(markers, r.Marker)
		}
	}
	if len(markers) == 0 {
		return reqs, nil
	}

	results, err := l.evaluateMarkers(ctx, markers)
	if err != nil {
		observability.DebugContext(ctx, "Cannot evaluate environment markers", logfields.Error(err))
	}
	for _, r := range reqs {
		if !r.Conditional() {
			applies = append(applies, r)
			continue
		}
		if err == nil && results[slices.Index(markers, r.Marker)] {
			applies = append(applies, r)
			continue
		}
		observability.DebugContext(ctx, "Skipping conditional requirement",
			logfields.Package(r.Name),
			slog.String("marker", r.Marker))
		skipped = append(skipped, r)
	}
	return applies, skipped
}

func (l *Launcher) evaluateMarkers(ctx context.Context, markers []string) ([]bool, error) {
	out, err := l.runner.Output(ctx, process.Command{
		Name: l.layout.Python,
		Args: append([]string{"-c", markerScript}, markers...),
		Env:  l.activatedEnv(),
		Dir:  l.layout.WorkDir,
	})
	if err != nil {
		return nil, err
	}

	var results []bool
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, fmt.Errorf("decode marker results: %w", err)
	}
	if len(results) != len(markers) {
		return nil, fmt.Errorf("expected %d marker results, got %d", len(markers), len(results))
	}
	return results, nil
}

func (l *Launcher) installedPackages(ctx context.Context) ([]string, error) {
	out, err := l.runner.Output(ctx, process.Command{
		Name: l.layout.Python,
		Args: []string{"-m", "pip", "list", "--format=json", "--disable-pip-version-check"},
		Env:  l.activatedEnv(),
		Dir:  l.layout.WorkDir,
	})
	if err != nil {
		return nil, err
	}

	var pkgs []pipPackage
	if err := json.Unmarshal(out, &pkgs); err != nil {
		return nil, fmt.Errorf("decode pip list output: %w", err)
	}
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	return names, nil
}
