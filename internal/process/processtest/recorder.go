// Package processtest provides an in-memory process.Runner and process.Execer for tests.
package processtest

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/pyboot/internal/process"
)

// Recorder records every command it is asked to run or exec. Hooks, keyed by
// the command name, may simulate side effects or failures.
type Recorder struct {
	mu      sync.Mutex
	runs    []process.Command
	execs   []process.Command
	hooks   map[string]func(process.Command) error
	outputs map[string]func(process.Command) ([]byte, error)
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hooks:   make(map[string]func(process.Command) error),
		outputs: make(map[string]func(process.Command) ([]byte, error)),
	}
}

// On registers fn for commands whose Name equals name.
func (r *Recorder) On(name string, fn func(process.Command) error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = fn
	return r
}

// OnOutput registers fn as the captured-output source for commands named name.
func (r *Recorder) OnOutput(name string, fn func(process.Command) ([]byte, error)) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[name] = fn
	return r
}

// Run implements process.Runner.
func (r *Recorder) Run(ctx context.Context, cmd process.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.runs = append(r.runs, cmd)
	hook := r.hooks[cmd.Name]
	r.mu.Unlock()

	if hook != nil {
		return hook(cmd)
	}
	return nil
}

// Output implements process.Runner. Captured commands are recorded with Run's.
func (r *Recorder) Output(ctx context.Context, cmd process.Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.runs = append(r.runs, cmd)
	fn := r.outputs[cmd.Name]
	r.mu.Unlock()

	if fn != nil {
		return fn(cmd)
	}
	return nil, nil
}

// Exec implements process.Execer. It records the command and returns the hook's result.
func (r *Recorder) Exec(cmd process.Command) error {
	r.mu.Lock()
	r.execs = append(r.execs, cmd)
	hook := r.hooks[cmd.Name]
	r.mu.Unlock()

	if hook != nil {
		return hook(cmd)
	}
	return nil
}

// Runs returns a copy of the commands passed to Run.
func (r *Recorder) Runs() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]process.Command(nil), r.runs...)
}

// Execs returns a copy of the commands passed to Exec.
func (r *Recorder) Execs() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]process.Command(nil), r.execs...)
}

// Fail returns a hook that reports a subprocess exit with code.
func Fail(code int) func(process.Command) error {
	return func(cmd process.Command) error {
		return &process.ExitError{Command: cmd.Name, Code: code}
	}
}
