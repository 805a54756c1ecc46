package main

import (
	"os"
	"runtime"

	"github.com/offlinefirst/mousewall/internal/cmd"
)

// The run loop must own the main thread: CoreGraphics delivers display
// reconfiguration callbacks through the main CFRunLoop.
func init() {
	runtime.LockOSThread()
}

func main() {
	root := cmd.NewRootCommand()
	if err := root.Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
