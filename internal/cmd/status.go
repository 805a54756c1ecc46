package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/events"
	"github.com/offlinefirst/mousewall/pkg/permissions"
)

func newStatusCommand() command {
	return command{
		name:        "status",
		description: "Report accessibility trust, event tap support and display bounds",
		run:         runStatus,
	}
}

// detectEnvironment is swapped in tests.
var detectEnvironment = events.DetectEnvironment

func runStatus(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	p := newPlatform(false)

	gate := permissions.NewGate(permissions.GateOptions{Source: p.trust, Logger: ctx.Logger})
	trusted := gate.Refresh()

	fallback := display.Bounds{
		MaxX: float64(ctx.Config.Display.FallbackWidth),
		MaxY: float64(ctx.Config.Display.FallbackHeight),
	}
	bounds, boundsErr := p.source().MainDisplay()
	if boundsErr != nil {
		bounds = fallback
	}

	env := detectEnvironment()

	fmt.Fprintf(stdout, "Config: %s\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "Accessibility trusted: %t\n", trusted)
	fmt.Fprintf(stdout, "Event tap: provider=%s available=%t permission=%s\n", env.Provider, env.Available, env.Permission)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(stdout, "  %s\n", env.Guidance)
	}
	fmt.Fprintf(stdout, "Primary bounds: %s\n", bounds)
	if boundsErr != nil {
		fmt.Fprintf(stdout, "  (fallback; display query unavailable: %v)\n", boundsErr)
	}
	printDisplays(stdout, p.displays())
	if !trusted {
		fmt.Fprintln(stdout, "Run `mousewall authorize` to request accessibility access.")
	}
	return nil
}

func printDisplays(stdout io.Writer, displays []display.Display) {
	if len(displays) == 0 {
		fmt.Fprintln(stdout, "Displays: none detected")
		return
	}
	fmt.Fprintf(stdout, "Displays: %d\n", len(displays))
	for _, d := range displays {
		marker := ""
		if d.Primary {
			marker = " (primary)"
		}
		fmt.Fprintf(stdout, "  #%d %s %gx%g%s\n", d.Index, d.Bounds, d.Bounds.Width(), d.Bounds.Height(), marker)
	}
}
