//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ImageExecer replaces the launcher's process image via execve(2), so the
// server inherits the launcher's PID, stdio and signal disposition.
type ImageExecer struct{}

func (ImageExecer) Exec(cmd Command) error {
	path, err := LookPath(cmd.Name)
	if err != nil {
		return err
	}
	if cmd.Dir != "" {
		if err := os.Chdir(cmd.Dir); err != nil {
			return &ExitError{Command: cmd.Name, Code: 1, Err: err}
		}
	}
	env := cmd.Env
	if env == nil {
		env = os.Environ()
	}

	argv := append([]string{cmd.Name}, cmd.Args...)
	err = unix.Exec(path, argv, env)
	// execve only returns on failure.
	return &ExitError{Command: cmd.Name, Code: 126, Err: err}
}

// signalStatus reports 128+signal for a child killed by a signal, the status
// a shell would exit with.
func signalStatus(err *exec.ExitError) (int, bool) {
	ws, ok := err.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
