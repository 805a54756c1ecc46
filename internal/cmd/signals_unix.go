//go:build unix

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

var (
	stopSignals    = []os.Signal{unix.SIGINT, unix.SIGTERM}
	controlSignals = []os.Signal{unix.SIGUSR1, unix.SIGUSR2}
)

func signalAction(sig os.Signal) action {
	switch sig {
	case unix.SIGUSR1:
		return actionToggle
	case unix.SIGUSR2:
		return actionRefresh
	default:
		return actionNone
	}
}
