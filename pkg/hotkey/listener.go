package hotkey

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
)

// ErrDisabled is returned by Listen for the zero combo.
var ErrDisabled = errors.New("hotkey: disabled")

// DefaultRepeatWindow suppresses key auto-repeat while the combo is held.
const DefaultRepeatWindow = 400 * time.Millisecond

// Options configures Listen.
type Options struct {
	Combo        Combo
	RepeatWindow time.Duration
	Logger       *slog.Logger
}

// hook is the global keyboard hook. The gohook event loop is process-wide, so
// only one listener may run at a time.
type hook interface {
	register(keys []string, cb func())
	start() <-chan bool
	end()
}

type gohookBackend struct{}

func (gohookBackend) register(keys []string, cb func()) {
	gohook.Register(gohook.KeyDown, keys, func(gohook.Event) { cb() })
}

func (gohookBackend) start() <-chan bool {
	return gohook.Process(gohook.Start())
}

func (gohookBackend) end() { gohook.End() }

var (
	backendMu sync.Mutex
	backend   hook = gohookBackend{}
)

// Listen registers the combo and calls fn on each press until ctx is done.
// fn runs on the hook goroutine and must hand work off quickly.
func Listen(ctx context.Context, opts Options, fn func()) error {
	if opts.Combo.Disabled() {
		return ErrDisabled
	}
	if fn == nil {
		return errors.New("hotkey: callback required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	window := opts.RepeatWindow
	if window <= 0 {
		window = DefaultRepeatWindow
	}

	backendMu.Lock()
	defer backendMu.Unlock()

	guard := newRepeatGuard(window, time.Now)
	backend.register(opts.Combo.Keys(), func() {
		if !guard.allow() {
			return
		}
		logger.Debug("toggle hotkey pressed", "combo", opts.Combo.String())
		fn()
	})
	done := backend.start()
	logger.Info("toggle hotkey registered", "combo", opts.Combo.String())

	select {
	case <-ctx.Done():
		backend.end()
		// The hook goroutine reports its exit on done; collect it so it does
		// not block forever.
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return ctx.Err()
	case <-done:
		return errors.New("hotkey: event hook stopped")
	}
}

type repeatGuard struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   time.Time
}

func newRepeatGuard(window time.Duration, now func() time.Time) *repeatGuard {
	return &repeatGuard{window: window, now: now}
}

func (g *repeatGuard) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.window {
		g.last = now
		return false
	}
	g.last = now
	return true
}
