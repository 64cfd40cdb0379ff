//go:build !unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
)

// ImageExecer emulates exec on platforms without execve(2): the command runs
// as a child with inherited stdio, interrupts are forwarded, and the launcher
// exits with the child's status.
type ImageExecer struct{}

func (ImageExecer) Exec(cmd Command) error {
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Env = cmd.Env
	c.Dir = cmd.Dir

	if err := c.Start(); err != nil {
		return classify(cmd, err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if err := c.Process.Signal(os.Interrupt); err != nil {
				_ = c.Process.Kill()
			}
		}
	}()

	err := c.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		os.Exit(exitErr.ExitCode())
	}
	return classify(cmd, err)
}

func signalStatus(*exec.ExitError) (int, bool) {
	return 0, false
}
