package display

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// Monitor delivers display reconfiguration signals. Multiple reconfigurations
// between reads coalesce into one signal.
type Monitor interface {
	Changes() <-chan struct{}
	Close() error
}

// PollMonitor detects reconfiguration by comparing the display list at a fixed
// interval.
type PollMonitor struct {
	changes chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPollMonitor snapshots the display list and starts polling it every
// interval. A nil list uses ListDisplays.
func NewPollMonitor(interval time.Duration, list Lister) *PollMonitor {
	if list == nil {
		list = ListDisplays
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &PollMonitor{
		changes: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go m.loop(ctx, interval, list, list())
	return m
}

func (m *PollMonitor) loop(ctx context.Context, interval time.Duration, list Lister, last []Display) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := list()
			if slices.Equal(current, last) {
				continue
			}
			last = current
			signal(m.changes)
		}
	}
}

// Changes returns the signal channel.
func (m *PollMonitor) Changes() <-chan struct{} { return m.changes }

// Close stops polling.
func (m *PollMonitor) Close() error {
	m.cancel()
	<-m.done
	return nil
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// multiMonitor coalesces the signals of several monitors into one channel.
type multiMonitor struct {
	monitors []Monitor
	changes  chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	err      error
}

// Combine returns a monitor that signals whenever any of monitors does.
// Closing it closes every underlying monitor.
func Combine(monitors ...Monitor) Monitor {
	m := &multiMonitor{
		monitors: monitors,
		changes:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	for _, mon := range monitors {
		m.wg.Add(1)
		go m.forward(mon.Changes())
	}
	return m
}

func (m *multiMonitor) forward(src <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		case _, ok := <-src:
			if !ok {
				return
			}
			signal(m.changes)
		}
	}
}

func (m *multiMonitor) Changes() <-chan struct{} { return m.changes }

func (m *multiMonitor) Close() error {
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()
		errs := make([]error, 0, len(m.monitors))
		for _, mon := range m.monitors {
			errs = append(errs, mon.Close())
		}
		m.err = errors.Join(errs...)
	})
	return m.err
}
