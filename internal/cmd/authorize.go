package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/mousewall/pkg/permissions"
)

func newAuthorizeCommand() command {
	return command{
		name:        "authorize",
		description: "Request accessibility access and open the settings pane",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("no-settings", false, "Only show the system prompt; do not open System Settings")
		},
		run: runAuthorize,
	}
}

func runAuthorize(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	p := newPlatform(false)

	var openSettings func() error
	if ctx.Config.Permissions.OpenSettings && !boolFlag(fs, "no-settings") {
		openSettings = p.openSettings
	}
	gate := permissions.NewGate(permissions.GateOptions{
		Source:       p.trust,
		OpenSettings: openSettings,
		Logger:       ctx.Logger,
	})

	if gate.Refresh() {
		fmt.Fprintln(stdout, "Accessibility access already granted.")
		return nil
	}
	if gate.RequestAccess() {
		fmt.Fprintln(stdout, "Accessibility access granted.")
		return nil
	}
	fmt.Fprintln(stdout, "Accessibility access not granted yet.")
	fmt.Fprintln(stdout, "Approve mousewall under System Settings > Privacy & Security > Accessibility, then run `mousewall status`.")
	return nil
}
