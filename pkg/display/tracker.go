package display

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
)

// DefaultFallback is used until the first successful read.
var DefaultFallback = Bounds{MinX: 0, MinY: 0, MaxX: 1920, MaxY: 1080}

// TrackerOptions controls tracker behaviour.
type TrackerOptions struct {
	Source   Source
	Fallback Bounds
	Logger   *slog.Logger
}

// Tracker caches the primary display bounds. Current is safe to call from the
// event callback; Refresh is expected on the run loop thread.
type Tracker struct {
	source  Source
	logger  *slog.Logger
	current atomic.Pointer[Bounds]
}

// NewTracker constructs a tracker seeded with the fallback bounds. It does not
// query the source until Refresh is called.
func NewTracker(opts TrackerOptions) *Tracker {
	source := opts.Source
	if source == nil {
		source = NewScreenSource()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fallback := opts.Fallback
	if !fallback.Valid() {
		fallback = DefaultFallback
	}

	t := &Tracker{source: source, logger: logger}
	t.current.Store(&fallback)
	return t
}

// Current returns the cached bounds snapshot.
func (t *Tracker) Current() Bounds {
	return *t.current.Load()
}

// Refresh recomputes the bounds from the source. When the source fails the
// last known bounds are kept.
func (t *Tracker) Refresh() Bounds {
	old := t.Current()
	bounds, err := t.source.MainDisplay()
	if err == nil && !bounds.Valid() {
		err = ErrBoundsUnavailable
	}
	if err != nil {
		if errors.Is(err, ErrBoundsUnavailable) {
			t.logger.Debug("display bounds unavailable, keeping last known", "bounds", old.String(), "error", err)
		} else {
			t.logger.Warn("display bounds query failed, keeping last known", "bounds", old.String(), "error", err)
		}
		return old
	}
	if bounds == old {
		return old
	}

	t.current.Store(&bounds)
	t.logger.Info("primary display bounds updated", "from", old.String(), "to", bounds.String())
	return bounds
}
