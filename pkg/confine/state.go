// Package confine orchestrates the permission gate, display tracker and event
// interceptor into a single enabled/disabled confinement state.
package confine

import (
	"time"

	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/events"
)

// State is the confinement state.
type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// Reason records why a transition happened.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonStart         Reason = "start"
	ReasonStop          Reason = "stop"
	ReasonToggle        Reason = "toggle"
	ReasonAccessRevoked Reason = "access_revoked"
	ReasonInstallFailed Reason = "install_failed"
	ReasonShutdown      Reason = "shutdown"
)

// Transition is one entry of the state history.
type Transition struct {
	At     time.Time
	State  State
	Reason Reason
	Error  string
}

// Status is the value published to observers.
type Status struct {
	State     State
	Trusted   bool
	Bounds    display.Bounds
	Stats     events.Stats
	Reason    Reason
	ChangedAt time.Time
}

// Enabled reports whether confinement is active.
func (s Status) Enabled() bool { return s.State == Enabled }
