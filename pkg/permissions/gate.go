package permissions

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// GateOptions configures a Gate.
type GateOptions struct {
	Source TrustSource
	// OpenSettings is invoked after prompting when non-nil.
	OpenSettings func() error
	Logger       *slog.Logger
}

// Gate publishes the current trust grant. The zero trust value is false until
// the first Refresh.
type Gate struct {
	source       TrustSource
	openSettings func() error
	logger       *slog.Logger
	trusted      atomic.Bool

	mu          sync.Mutex
	subscribers []func(trusted bool)
}

// NewGate constructs a gate. It does not query the source.
func NewGate(opts GateOptions) *Gate {
	source := opts.Source
	if source == nil {
		source = WithEnvOverride(nil, SystemTrust())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{source: source, openSettings: opts.OpenSettings, logger: logger}
}

// CurrentlyTrusted returns the last value read by Refresh.
func (g *Gate) CurrentlyTrusted() bool {
	return g.trusted.Load()
}

// Refresh re-queries the source and notifies subscribers when the value
// changed.
func (g *Gate) Refresh() bool {
	trusted := g.query()
	previous := g.trusted.Swap(trusted)
	if previous == trusted {
		return trusted
	}

	g.logger.Info("accessibility trust changed", "trusted", trusted)
	g.mu.Lock()
	subscribers := append([]func(bool){}, g.subscribers...)
	g.mu.Unlock()
	for _, fn := range subscribers {
		fn(trusted)
	}
	return trusted
}

// RequestAccess shows the OS consent prompt, optionally opens the settings
// pane and refreshes. Neither step waits for the user.
func (g *Gate) RequestAccess() bool {
	g.source.Prompt()
	if g.openSettings != nil {
		if err := g.openSettings(); err != nil {
			g.logger.Warn("open accessibility settings", "error", err)
		}
	}
	return g.Refresh()
}

// Subscribe registers fn for trust changes.
func (g *Gate) Subscribe(fn func(trusted bool)) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.subscribers = append(g.subscribers, fn)
	g.mu.Unlock()
}

func (g *Gate) query() (trusted bool) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("accessibility trust query panicked", "panic", r)
			trusted = false
		}
	}()
	return g.source.Trusted()
}
