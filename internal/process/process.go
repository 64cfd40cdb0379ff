// Package process runs the launcher's subprocesses and performs the final
// process-image replacement.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// ExitNotFound is the shell's status for a command that cannot be found.
const ExitNotFound = 127

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Env is the complete child environment. Nil inherits the launcher's.
	Env []string
	Dir string
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes a subprocess to completion.
type Runner interface {
	// Run streams the subprocess output through to the launcher's streams.
	Run(ctx context.Context, cmd Command) error
	// Output captures the subprocess stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// Execer replaces the current process with cmd. On success it does not return.
type Execer interface {
	Exec(cmd Command) error
}

// ExitError reports a subprocess that could not start or exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	if e.Code == ExitNotFound {
		if e.Err == nil {
			return e.Command + ": command not found"
		}
		return fmt.Sprintf("%s: command not found: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the subprocess exit status.
func (e *ExitError) ExitCode() int { return e.Code }

// ExecRunner runs commands on the local host with output streamed through.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner attached to the launcher's own streams.
func NewExecRunner() ExecRunner {
	return ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts cmd and waits for it. A cancelled ctx kills the subprocess.
func (r ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	c.Env = cmd.Env
	c.Dir = cmd.Dir

	return classify(cmd, c.Run())
}

// Output runs cmd and returns its stdout; stderr still streams through.
func (r ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stderr = r.Stderr
	c.Env = cmd.Env
	c.Dir = cmd.Dir

	out, err := c.Output()
	return out, classify(cmd, err)
}

// classify converts an os/exec error into an ExitError carrying a shell-style status.
func classify(cmd Command, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if status, ok := signalStatus(exitErr); ok {
			code = status
		}
		return &ExitError{Command: cmd.Name, Code: code, Err: err}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &ExitError{Command: cmd.Name, Code: ExitNotFound, Err: err}
	}
	return &ExitError{Command: cmd.Name, Code: 1, Err: err}
}

// LookPath resolves name on PATH, failing with a not-found ExitError.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &ExitError{Command: name, Code: ExitNotFound, Err: err}
	}
	return path, nil
}

// MergeEnv overlays vars onto base (KEY=VALUE form). When override is false,
// keys already present in base keep their value.
func MergeEnv(base []string, vars map[string]string, override bool) []string {
	if len(vars) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(vars))
	seen := make(map[string]struct{}, len(base))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := vars[key]; ok && override {
			out = append(out, key+"="+v)
		} else {
			out = append(out, kv)
		}
		seen[key] = struct{}{}
	}
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		if _, ok := seen[key]; ok {
			continue
		}
		out = append(out, key+"="+vars[key])
	}
	return out
}

// RemoveEnv drops every entry for the given keys.
func RemoveEnv(base []string, keys ...string) []string {
	out := base[:0:0]
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if !slices.Contains(keys, key) {
			out = append(out, kv)
		}
	}
	return out
}

// LookupEnv returns the value for key in a KEY=VALUE list.
func LookupEnv(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(env[i], "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}
