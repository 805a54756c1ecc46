//go:build !unix

package cmd

import "os"

var (
	stopSignals    = []os.Signal{os.Interrupt}
	controlSignals []os.Signal
)

func signalAction(os.Signal) action { return actionNone }
