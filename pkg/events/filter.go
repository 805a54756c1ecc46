package events

import (
	"sync/atomic"

	"github.com/offlinefirst/mousewall/pkg/display"
)

// BoundsFunc returns the rectangle events are clamped to. It is called once
// per pointer-motion event and must not block.
type BoundsFunc func() display.Bounds

// Action tells the platform callback what to do with an event.
type Action int

const (
	// ActionPass returns the event unmodified.
	ActionPass Action = iota
	// ActionRewrite replaces the event location with the returned point.
	ActionRewrite
	// ActionReenable re-enables a suspended tap before returning.
	ActionReenable
)

// Stats counts what the filter has done since install.
type Stats struct {
	Seen      uint64
	Clamped   uint64
	Reenabled uint64
}

// Filter is the per-event decision shared by every interceptor.
type Filter struct {
	bounds    BoundsFunc
	seen      atomic.Uint64
	clamped   atomic.Uint64
	reenabled atomic.Uint64
}

// NewFilter constructs a filter reading bounds on every event.
func NewFilter(bounds BoundsFunc) *Filter {
	return &Filter{bounds: bounds}
}

// Apply decides the fate of one event. Only pointer-motion kinds are ever
// rewritten, and only when the clamped point differs from the original.
func (f *Filter) Apply(kind Kind, p display.Point) (display.Point, Action) {
	switch {
	case kind.IsTapDisabled():
		f.reenabled.Add(1)
		return p, ActionReenable
	case kind.IsPointerMotion():
		f.seen.Add(1)
		clamped := f.bounds().Clamp(p)
		if clamped == p {
			return p, ActionPass
		}
		f.clamped.Add(1)
		return clamped, ActionRewrite
	default:
		return p, ActionPass
	}
}

// Stats returns a snapshot of the counters.
func (f *Filter) Stats() Stats {
	return Stats{
		Seen:      f.seen.Load(),
		Clamped:   f.clamped.Load(),
		Reenabled: f.reenabled.Load(),
	}
}
