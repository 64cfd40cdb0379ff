package process

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDryRun is returned by DryRun.Output: captured output cannot be faked.
var ErrDryRun = errors.New("command output unavailable in dry-run mode")

// DryRun logs commands instead of running them. It satisfies both Runner and Execer;
// Exec returns nil so the launcher finishes normally.
type DryRun struct {
	Logger *slog.Logger
}

func (d DryRun) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d DryRun) Run(ctx context.Context, cmd Command) error {
	d.logger().InfoContext(ctx, "dry-run: would run", "command", cmd.String(), "dir", cmd.Dir)
	return nil
}

func (d DryRun) Exec(cmd Command) error {
	d.logger().Info("dry-run: would exec", "command", cmd.String(), "dir", cmd.Dir)
	return nil
}

func (d DryRun) Output(ctx context.Context, cmd Command) ([]byte, error) {
	d.logger().InfoContext(ctx, "dry-run: would capture", "command", cmd.String(), "dir", cmd.Dir)
	return nil, ErrDryRun
}
