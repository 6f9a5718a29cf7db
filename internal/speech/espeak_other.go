//go:build !unix

package speech

import (
	"errors"
	"os/exec"
)

var errUnsupported = errors.New("signals unsupported")

type signalFunc func(*exec.Cmd) error

func pauseSignal(*exec.Cmd) error  { return errUnsupported }
func resumeSignal(*exec.Cmd) error { return errUnsupported }
