//go:build unix

package speech

import (
	"errors"
	"os/exec"
	"syscall"
)

var errUnsupported = errors.New("signals unsupported")

type signalFunc func(*exec.Cmd) error

func pauseSignal(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGSTOP)
}

func resumeSignal(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGCONT)
}
