// Package launcher bootstraps a Python web application: it ensures a virtual
// environment exists, installs the requirements manifest into it, and replaces
// itself with the application server.
//
// The three steps run strictly in order and stop at the first failure. Nothing
// is retried or rolled back; subprocess exit statuses travel up unchanged.
package launcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/pyboot/internal/config"
	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
	"git.home.luguber.info/inful/pyboot/internal/logfields"
	"git.home.luguber.info/inful/pyboot/internal/metrics"
	"git.home.luguber.info/inful/pyboot/internal/observability"
	"git.home.luguber.info/inful/pyboot/internal/process"
)

// Step names used in logs and error context.
const (
	StepEnvironment = "ensure-environment"
	StepInstall     = "install-dependencies"
	StepLaunch      = "launch-server"
	StepCheck       = "check-dependencies"
)

// Options configures a Launcher. Zero values select the host implementations.
type Options struct {
	WorkDir string
	Config  *config.Config
	Runner  process.Runner
	Execer  process.Execer
	// Environ supplies the base child environment.
	Environ func() []string
	// LookPath resolves the system interpreter.
	LookPath func(string) (string, error)
	// Metrics receives watcher reinstall events.
	Metrics metrics.Recorder
}

// Launcher runs the bootstrap sequence for one work dir.
type Launcher struct {
	cfg      *config.Config
	layout   Layout
	runner   process.Runner
	execer   process.Execer
	environ  func() []string
	lookPath func(string) (string, error)
	metrics  metrics.Recorder
}

// New creates a launcher for opts.WorkDir.
func New(opts Options) (*Launcher, error) {
	layout, err := NewLayout(opts.WorkDir)
	if err != nil {
		return nil, err
	}

	l := &Launcher{
		cfg:      opts.Config,
		layout:   layout,
		runner:   opts.Runner,
		execer:   opts.Execer,
		environ:  opts.Environ,
		lookPath: opts.LookPath,
		metrics:  opts.Metrics,
	}
	if l.cfg == nil {
		l.cfg = config.Default()
	}
	if l.runner == nil {
		l.runner = process.NewExecRunner()
	}
	if l.execer == nil {
		l.execer = process.ImageExecer{}
	}
	if l.environ == nil {
		l.environ = os.Environ
	}
	if l.lookPath == nil {
		l.lookPath = process.LookPath
	}
	if l.metrics == nil {
		l.metrics = metrics.NoopRecorder{}
	}
	return l, nil
}

// Layout returns the resolved paths.
func (l *Launcher) Layout() Layout {
	return l.layout
}

// Server returns the fixed server invocation.
func (l *Launcher) Server() ServerSpec {
	return ServerSpec{
		App:    l.cfg.App,
		Host:   ServerHost,
		Port:   ServerPort,
		Reload: true,
	}
}

// Run performs the full sequence. On success the process image is replaced
// by the server and Run does not return.
func (l *Launcher) Run(ctx context.Context) error {
	if err := l.Setup(ctx); err != nil {
		return err
	}
	return l.LaunchServer(ctx)
}

// Setup performs the environment and dependency steps without launching.
func (l *Launcher) Setup(ctx context.Context) error {
	if err := l.EnsureEnvironment(ctx); err != nil {
		return err
	}
	return l.InstallDependencies(ctx)
}

// EnsureEnvironment creates the virtual environment when the directory is absent.
// An existing directory is never recreated.
func (l *Launcher) EnsureEnvironment(ctx context.Context) error {
	ctx = observability.WithStep(ctx, StepEnvironment)

	if isDir(l.layout.EnvDir) {
		observability.InfoContext(ctx, "Virtual environment already exists", logfields.Path(l.layout.EnvDir))
		return nil
	}

	python, err := l.systemPython()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "no Python interpreter found").
			Fatal().
			WithContext("step", StepEnvironment).
			Build()
	}

	observability.InfoContext(ctx, "Creating virtual environment",
		logfields.Path(l.layout.EnvDir),
		slog.String("python", python))
	cmd := process.Command{
		Name: python,
		Args: []string{"-m", "venv", EnvDirName},
		Dir:  l.layout.WorkDir,
	}
	if err := l.run(ctx, cmd); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryEnvironment, "create virtual environment").
			Fatal().
			WithContext("step", StepEnvironment).
			WithContext("path", l.layout.EnvDir).
			Build()
	}
	return nil
}

// InstallDependencies installs the manifest into the environment. A missing
// manifest is a notice, not a failure.
func (l *Launcher) InstallDependencies(ctx context.Context) error {
	ctx = observability.WithStep(ctx, StepInstall)

	if !isFile(l.layout.Manifest) {
		observability.InfoContext(ctx, "No "+ManifestName+" found, skipping dependency installation",
			logfields.Path(l.layout.Manifest))
		return nil
	}

	observability.InfoContext(ctx, "Installing dependencies", logfields.Path(l.layout.Manifest))
	cmd := process.Command{
		Name: l.layout.Pip,
		Args: []string{"install", "-r", ManifestName},
		Env:  process.MergeEnv(l.activatedEnv(), l.cfg.InstallerEnv(), true),
		Dir:  l.layout.WorkDir,
	}
	if err := l.run(ctx, cmd); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInstall, "install dependencies").
			Fatal().
			WithContext("step", StepInstall).
			WithContext("manifest", l.layout.Manifest).
			Build()
	}
	return nil
}

// LaunchServer replaces the launcher with the application server. It returns
// only when the exec fails, or when the Execer does not replace the process.
func (l *Launcher) LaunchServer(ctx context.Context) error {
	ctx = observability.WithStep(ctx, StepLaunch)
	spec := l.Server()

	dotenv, err := l.cfg.ServerEnv(l.layout.WorkDir)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "read env_file").
			Fatal().
			WithContext("step", StepLaunch).
			Build()
	}

	cmd := process.Command{
		Name: l.layout.Uvicorn,
		Args: spec.Args(),
		Env:  process.MergeEnv(l.activatedEnv(), dotenv, false),
		Dir:  l.layout.WorkDir,
	}
	observability.InfoContext(ctx, "Starting server",
		slog.String("app", spec.App),
		slog.String("addr", spec.Addr()),
		slog.Bool("reload", spec.Reload),
		logfields.Command(cmd.String()))

	if err := l.execer.Exec(cmd); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryLaunch, "start server").
			Fatal().
			WithContext("step", StepLaunch).
			WithContext("addr", spec.Addr()).
			Build()
	}
	return nil
}

func (l *Launcher) run(ctx context.Context, cmd process.Command) error {
	observability.DebugContext(ctx, "Running command", logfields.Command(cmd.Name), logfields.Args(cmd.Args))
	start := time.Now()
	err := l.runner.Run(ctx, cmd)
	attrs := []slog.Attr{
		logfields.Command(cmd.Name),
		logfields.DurationMS(float64(time.Since(start).Microseconds()) / 1000),
	}
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, logfields.ExitCode(exitErr.Code))
		}
		observability.DebugContext(ctx, "Command failed", append(attrs, logfields.Error(err))...)
		return err
	}
	observability.DebugContext(ctx, "Command finished", attrs...)
	return nil
}
