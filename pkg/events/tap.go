package events

import (
	"errors"
	"sync/atomic"

	"github.com/offlinefirst/mousewall/pkg/display"
)

// TapOptions controls an install.
type TapOptions struct {
	Bounds BoundsFunc
	// OnReenable runs on the callback thread after a suspended tap was
	// re-enabled. It must not block.
	OnReenable func(kind Kind)
}

// Interceptor installs and removes the global pointer hook.
type Interceptor interface {
	Install(opts TapOptions) (*Handle, error)
	// Uninstall releases the handle; nil and already released handles are
	// ignored.
	Uninstall(h *Handle)
}

// Cursor reads and moves the on-screen pointer.
type Cursor interface {
	Location() (display.Point, error)
	Warp(p display.Point) error
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle owns one installed tap. It must not be copied.
type Handle struct {
	_ noCopy

	filter     *Filter
	closed     atomic.Bool
	onReenable func(Kind)

	// set by the platform install
	reenable func()
	release  func()
}

func newHandle(opts TapOptions) (*Handle, error) {
	if opts.Bounds == nil {
		return nil, errors.New("tap options: bounds func required")
	}
	return &Handle{filter: NewFilter(opts.Bounds), onReenable: opts.OnReenable}, nil
}

// Stats returns the filter counters for this handle.
func (h *Handle) Stats() Stats {
	if h == nil {
		return Stats{}
	}
	return h.filter.Stats()
}

// Closed reports whether the handle was released.
func (h *Handle) Closed() bool {
	return h == nil || h.closed.Load()
}

// Close releases the OS resources. It is safe to call repeatedly, and from
// within the event callback.
func (h *Handle) Close() error {
	if h == nil || h.closed.Swap(true) {
		return nil
	}
	if h.release != nil {
		h.release()
	}
	return nil
}

// handle runs the filter for one event and performs the re-enable side
// effect. It reports the point and action for the platform callback.
func (h *Handle) handle(kind Kind, p display.Point) (display.Point, Action) {
	if h.Closed() {
		return p, ActionPass
	}
	out, action := h.filter.Apply(kind, p)
	if action == ActionReenable {
		if h.reenable != nil {
			h.reenable()
		}
		if h.onReenable != nil {
			h.onReenable(kind)
		}
	}
	return out, action
}
