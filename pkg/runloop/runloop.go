// Package runloop owns the single OS thread on which confinement state
// changes and event-tap callbacks execute. Other goroutines hand work to it
// with Post or Do; nothing on the loop ever waits for them.
package runloop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

var (
	// ErrStopped is returned once the loop has exited.
	ErrStopped = errors.New("run loop stopped")
	// ErrQueueFull is returned by Post when the task queue is saturated.
	ErrQueueFull = errors.New("run loop queue full")
	// ErrRunning is returned when Run is called twice.
	ErrRunning = errors.New("run loop already running")
)

const defaultQueueSize = 64

// Options configures a Loop.
type Options struct {
	QueueSize int
	Logger    *slog.Logger
}

// Loop is a thread-confined task executor.
type Loop struct {
	tasks  chan func()
	logger *slog.Logger
	done   chan struct{}

	mu      sync.Mutex
	wake    func()
	started bool
	stopped bool
}

// New constructs a loop. Tasks posted before Run are executed once it starts.
func New(opts Options) *Loop {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		tasks:  make(chan func(), size),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run locks the calling goroutine to its OS thread and executes tasks until
// ctx is cancelled. On darwin the thread runs a CFRunLoop so event taps and
// display callbacks attached from tasks are serviced on it. Call it from the
// main goroutine, locked to the main thread in init, to make it the process's
// main run loop.
func (l *Loop) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrRunning
	}
	l.started = true
	l.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.run(ctx)

	l.mu.Lock()
	l.stopped = true
	l.wake = nil
	l.mu.Unlock()
	close(l.done)
	return ctx.Err()
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post enqueues fn without waiting for it.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return ErrStopped
	}

	select {
	case l.tasks <- fn:
	default:
		return ErrQueueFull
	}
	if l.wake != nil {
		l.wake()
	}
	return nil
}

// postBlocking waits for queue space instead of failing.
func (l *Loop) postBlocking(fn func()) {
	l.tasks <- fn
	l.mu.Lock()
	if l.wake != nil {
		l.wake()
	}
	l.mu.Unlock()
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) setWake(wake func()) {
	l.mu.Lock()
	l.wake = wake
	l.mu.Unlock()
}

// drain executes every queued task.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		default:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("run loop task panicked", "panic", r)
		}
	}()
	fn()
}
