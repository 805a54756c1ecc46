package cmd

import (
	"time"

	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/events"
	"github.com/offlinefirst/mousewall/pkg/permissions"
)

// platform bundles the OS seams the commands depend on.
type platform struct {
	name         string
	trust        permissions.TrustSource
	openSettings func() error
	displays     display.Lister
	interceptor  events.Interceptor
	cursor       events.Cursor
	newMonitor   func(interval time.Duration) (display.Monitor, error)
}

func (p platform) source() display.Source {
	return display.NewListerSource(p.displays)
}

func systemPlatform() platform {
	return platform{
		name:         "system",
		trust:        permissions.WithEnvOverride(nil, permissions.SystemTrust()),
		openSettings: permissions.OpenSettings,
		displays:     display.ListDisplays,
		interceptor:  events.NewSystem(),
		cursor:       events.NewCursor(),
		newMonitor:   display.NewMonitor,
	}
}

// dryRunPlatform keeps the real display queries but confines a simulated
// pointer. Trust defaults to granted unless the accessibility override says
// otherwise.
func dryRunPlatform() platform {
	synthetic := events.NewSynthetic(display.Point{})
	granted := permissions.TrustFuncs{TrustedFunc: func() bool { return true }}
	return platform{
		name:         "dry-run",
		trust:        permissions.WithEnvOverride(nil, granted),
		openSettings: func() error { return nil },
		displays:     display.ListDisplays,
		interceptor:  synthetic,
		cursor:       synthetic,
		newMonitor: func(interval time.Duration) (display.Monitor, error) {
			return display.NewPollMonitor(interval, nil), nil
		},
	}
}

// newPlatform is swapped in tests.
var newPlatform = func(dryRun bool) platform {
	if dryRun {
		return dryRunPlatform()
	}
	return systemPlatform()
}
