package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pyboot/internal/config"
	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
	"git.home.luguber.info/inful/pyboot/internal/launcher"
	"git.home.luguber.info/inful/pyboot/internal/logfields"
	"git.home.luguber.info/inful/pyboot/internal/observability"
	"git.home.luguber.info/inful/pyboot/internal/process"
	"git.home.luguber.info/inful/pyboot/internal/version"
)

// Global holds dependencies shared by every command. Nil fields select the
// host implementations.
type Global struct {
	Logger *slog.Logger
	Runner process.Runner
	Execer process.Execer
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Vars supplies the values interpolated into struct tags.
func Vars() kong.Vars {
	return kong.Vars{
		"version":        version.String(),
		"config_path":    config.DefaultPath,
		"watch_debounce": launcher.DefaultWatchDebounce.String(),
	}
}

// CLI is the root command structure for kong.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (relative to --workdir)" default:"${config_path}"`
	Workdir string           `short:"C" name:"workdir" help:"Application directory" default:"." type:"existingdir"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	DryRun  bool             `name:"dry-run" help:"Log subprocess commands instead of running them"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run        RunCmd     `cmd:"" default:"1" help:"Prepare the environment and replace this process with the server (default)"`
	Setup      SetupCmd   `cmd:"" help:"Create the virtual environment and install dependencies without launching"`
	Check      CheckCmd   `cmd:"" help:"Report declared dependencies missing from the virtual environment"`
	Watch      WatchCmd   `cmd:"" help:"Reinstall dependencies whenever requirements.txt changes"`
	Init       InitCmd    `cmd:"" help:"Write a default configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply configures the default logger before any command runs. The
// configuration file may raise or lower the level later in loadConfig.
func (c *CLI) AfterApply() error {
	cfg := config.Default()
	config.ApplyEnvOverrides(cfg)
	c.configureLogging(cfg)
	return nil
}

func (c *CLI) configureLogging(cfg *config.Config) {
	level := cfg.Log.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, cfg.Log.JSON()))
}

// configPath resolves --config against --workdir.
func (c *CLI) configPath() string {
	if filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(c.Workdir, c.Config)
}

func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath()
	cfg, found, err := config.Load(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "load configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}
	c.configureLogging(cfg)
	if found {
		slog.Debug("Loaded configuration", logfields.Path(path))
	}
	return cfg, nil
}

// newLauncher loads configuration and builds a launcher for the work dir.
// With --dry-run every subprocess is logged instead of started.
func (c *CLI) newLauncher(g *Global, with ...func(*launcher.Options)) (*launcher.Launcher, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	opts := launcher.Options{
		WorkDir: c.Workdir,
		Config:  cfg,
		Runner:  g.Runner,
		Execer:  g.Execer,
	}
	if c.DryRun {
		dry := process.DryRun{Logger: g.Logger}
		opts.Runner = dry
		opts.Execer = dry
	}
	for _, fn := range with {
		fn(&opts)
	}
	return launcher.New(opts)
}

// signalContext is cancelled on SIGINT or SIGTERM and carries a fresh run id.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return observability.WithNewRunID(ctx), stop
}
