package confine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/events"
)

// Gate is the permission surface the engine depends on.
type Gate interface {
	CurrentlyTrusted() bool
	Refresh() bool
	RequestAccess() bool
	Subscribe(fn func(trusted bool))
}

// Tracker is the display surface the engine depends on.
type Tracker interface {
	Current() display.Bounds
	Refresh() display.Bounds
}

const defaultHistorySize = 16

// Options wires an Engine.
type Options struct {
	Gate        Gate
	Tracker     Tracker
	Interceptor events.Interceptor
	// Cursor is used to pull an off-display pointer back before installing.
	// A nil cursor skips the warp.
	Cursor      events.Cursor
	SkipWarp    bool
	HistorySize int
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Engine is the confinement state machine. Every method must be called from
// the run loop thread that also services the event tap.
type Engine struct {
	gate        Gate
	tracker     Tracker
	interceptor events.Interceptor
	cursor      events.Cursor
	warp        bool
	clock       func() time.Time
	logger      *slog.Logger

	state       State
	handle      *events.Handle
	reason      Reason
	changedAt   time.Time
	history     []Transition
	historySize int
	publisher   *Publisher
}

// New validates options and constructs a disabled engine subscribed to gate
// changes.
func New(opts Options) (*Engine, error) {
	if opts.Gate == nil {
		return nil, errors.New("confine: gate is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("confine: tracker is required")
	}
	if opts.Interceptor == nil {
		return nil, errors.New("confine: interceptor is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	size := opts.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}

	e := &Engine{
		gate:        opts.Gate,
		tracker:     opts.Tracker,
		interceptor: opts.Interceptor,
		cursor:      opts.Cursor,
		warp:        !opts.SkipWarp && opts.Cursor != nil,
		clock:       clock,
		logger:      logger,
		state:       Disabled,
		changedAt:   clock(),
		historySize: size,
	}
	e.publisher = NewPublisher(e.Snapshot())
	opts.Gate.Subscribe(e.onTrustChanged)
	return e, nil
}

// Start enables confinement. It does nothing when already enabled or when
// the gate reports no trust.
func (e *Engine) Start() error {
	return e.start(ReasonStart)
}

// Stop disables confinement. It does nothing when already disabled.
func (e *Engine) Stop() {
	e.stop(ReasonStop)
}

// Toggle flips the state.
func (e *Engine) Toggle() error {
	if e.state == Enabled {
		e.stop(ReasonToggle)
		return nil
	}
	return e.start(ReasonToggle)
}

// RequestAccess prompts for trust and publishes the result. Gaining trust
// never enables confinement by itself.
func (e *Engine) RequestAccess() bool {
	trusted := e.gate.RequestAccess()
	e.publish()
	return trusted
}

// RefreshAccess re-reads trust; losing it while enabled forces a stop.
func (e *Engine) RefreshAccess() bool {
	trusted := e.gate.Refresh()
	e.publish()
	return trusted
}

// DisplayChanged refreshes the cached bounds. The installed tap reads them on
// its next event, so nothing is reinstalled.
func (e *Engine) DisplayChanged() {
	e.tracker.Refresh()
	e.publish()
}

// Shutdown stops confinement and closes every subscription.
func (e *Engine) Shutdown() {
	e.stop(ReasonShutdown)
	e.publisher.Close()
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Snapshot returns the current published value.
func (e *Engine) Snapshot() Status {
	return Status{
		State:     e.state,
		Trusted:   e.gate.CurrentlyTrusted(),
		Bounds:    e.tracker.Current(),
		Stats:     e.handle.Stats(),
		Reason:    e.reason,
		ChangedAt: e.changedAt,
	}
}

// History returns the recorded transitions, oldest first.
func (e *Engine) History() []Transition {
	return append([]Transition(nil), e.history...)
}

// Subscribe observes status changes. Values are delivered through a
// latest-value slot and never block the engine.
func (e *Engine) Subscribe() (<-chan Status, func()) {
	return e.publisher.Subscribe()
}

func (e *Engine) start(reason Reason) error {
	if e.state == Enabled {
		return nil
	}
	if !e.gate.Refresh() {
		e.logger.Info("confinement not started: accessibility trust missing", "reason", reason)
		e.publish()
		return nil
	}

	bounds := e.tracker.Refresh()
	if e.warp {
		e.warpInside(bounds)
	}

	handle, err := e.interceptor.Install(events.TapOptions{
		Bounds:     e.tracker.Current,
		OnReenable: e.onReenable,
	})
	if err != nil {
		e.record(Disabled, ReasonInstallFailed, err)
		e.logger.Error("event tap install failed", "reason", reason, "error", err)
		e.publish()
		return fmt.Errorf("install event tap: %w", err)
	}

	e.handle = handle
	e.transition(Enabled, reason)
	e.logger.Info("confinement enabled", "reason", reason, "bounds", bounds.String())
	return nil
}

func (e *Engine) stop(reason Reason) {
	if e.state == Disabled {
		return
	}
	// The state flips first so a reentrant stop from the tap callback is a
	// no-op.
	handle := e.handle
	e.handle = nil
	e.state = Disabled
	stats := handle.Stats()
	e.interceptor.Uninstall(handle)

	e.transition(Disabled, reason)
	e.logger.Info("confinement disabled", "reason", reason, "clamped", stats.Clamped, "seen", stats.Seen, "reenabled", stats.Reenabled)
}

func (e *Engine) warpInside(bounds display.Bounds) {
	location, err := e.cursor.Location()
	if err != nil {
		e.logger.Debug("pointer location unavailable, skipping warp", "error", err)
		return
	}
	if bounds.Contains(location) {
		return
	}
	center := bounds.Center()
	if err := e.cursor.Warp(center); err != nil {
		e.logger.Warn("warp pointer to primary display failed", "error", err)
		return
	}
	e.logger.Debug("pointer warped to primary display", "from_x", location.X, "from_y", location.Y, "to_x", center.X, "to_y", center.Y)
}

func (e *Engine) onTrustChanged(trusted bool) {
	if !trusted && e.state == Enabled {
		e.logger.Warn("accessibility trust revoked while confined; disabling")
		e.stop(ReasonAccessRevoked)
		return
	}
	e.publish()
}

func (e *Engine) onReenable(kind events.Kind) {
	e.logger.Warn("event tap suspended by the system, re-enabled", "kind", kind.String(), "count", e.handle.Stats().Reenabled)
}

func (e *Engine) transition(state State, reason Reason) {
	e.state = state
	e.record(state, reason, nil)
	e.publish()
}

func (e *Engine) record(state State, reason Reason, err error) {
	now := e.clock()
	e.reason = reason
	e.changedAt = now
	entry := Transition{At: now, State: state, Reason: reason}
	if err != nil {
		entry.Error = err.Error()
	}
	e.history = append(e.history, entry)
	if over := len(e.history) - e.historySize; over > 0 {
		e.history = append(e.history[:0], e.history[over:]...)
	}
}

func (e *Engine) publish() {
	e.publisher.Publish(e.Snapshot())
}
