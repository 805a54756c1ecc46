package display

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	bounds Bounds
	err    error
	calls  int
}

func (f *fakeSource) MainDisplay() (Bounds, error) {
	f.calls++
	return f.bounds, f.err
}

func TestTrackerStartsWithFallback(t *testing.T) {
	src := &fakeSource{err: ErrBoundsUnavailable}
	tracker := NewTracker(TrackerOptions{Source: src})
	assert.Equal(t, DefaultFallback, tracker.Current())
	assert.Zero(t, src.calls, "construction must not query the source")

	custom := Bounds{MaxX: 1440, MaxY: 900}
	tracker = NewTracker(TrackerOptions{Source: src, Fallback: custom})
	assert.Equal(t, custom, tracker.Current())
}

func TestTrackerRefreshReplacesBounds(t *testing.T) {
	src := &fakeSource{bounds: Bounds{MaxX: 2560, MaxY: 1440}}
	tracker := NewTracker(TrackerOptions{Source: src})

	got := tracker.Refresh()
	assert.Equal(t, src.bounds, got)
	assert.Equal(t, src.bounds, tracker.Current())

	src.err = errors.New("window server unavailable")
	assert.Equal(t, src.bounds, tracker.Refresh())
	require.Equal(t, 2, src.calls)
}

func TestTrackerKeepsLastKnownOnFailure(t *testing.T) {
	good := Bounds{MaxX: 1728, MaxY: 1117}
	src := &fakeSource{bounds: good}
	tracker := NewTracker(TrackerOptions{Source: src})
	tracker.Refresh()

	src.err = ErrBoundsUnavailable
	assert.Equal(t, good, tracker.Refresh())

	src.err = errors.New("boom")
	assert.Equal(t, good, tracker.Refresh())

	src.err = nil
	src.bounds = Bounds{}
	assert.Equal(t, good, tracker.Refresh(), "degenerate bounds must be ignored")
	assert.Equal(t, good, tracker.Current())
}

func TestScreenSourceUsesFirstDisplay(t *testing.T) {
	src := &ScreenSource{list: func() []Display {
		return []Display{
			{Index: 0, Primary: true, Bounds: Bounds{MaxX: 1512, MaxY: 982}},
			{Index: 1, Bounds: Bounds{MinX: 1512, MaxX: 4072, MaxY: 1440}},
		}
	}}
	b, err := src.MainDisplay()
	require.NoError(t, err)
	assert.Equal(t, Bounds{MaxX: 1512, MaxY: 982}, b)

	src.list = func() []Display { return nil }
	_, err = src.MainDisplay()
	assert.ErrorIs(t, err, ErrBoundsUnavailable)

	src.list = func() []Display { return []Display{{Bounds: Bounds{}}} }
	_, err = src.MainDisplay()
	assert.ErrorIs(t, err, ErrBoundsUnavailable)
}

func TestPollMonitorSignalsOnChange(t *testing.T) {
	layouts := make(chan []Display, 8)
	current := []Display{{Index: 0, Primary: true, Bounds: hd}}
	list := func() []Display {
		select {
		case next := <-layouts:
			current = next
		default:
		}
		return current
	}

	m := NewPollMonitor(5*time.Millisecond, list)
	defer m.Close()

	// A change right after construction must still be reported.
	layouts <- []Display{{Index: 0, Primary: true, Bounds: Bounds{MaxX: 2560, MaxY: 1440}}}
	select {
	case <-m.Changes():
	case <-time.After(time.Second):
		t.Fatalf("expected change signal")
	}
}

func TestPollMonitorSnapshotsBeforeReturning(t *testing.T) {
	var calls atomic.Int32
	list := func() []Display {
		calls.Add(1)
		return []Display{{Index: 0, Primary: true, Bounds: hd}}
	}

	m := NewPollMonitor(time.Hour, list)
	defer m.Close()
	require.EqualValues(t, 1, calls.Load(), "baseline must be taken by the constructor")

	select {
	case <-m.Changes():
		t.Fatalf("unexpected change signal for an unchanged layout")
	case <-time.After(20 * time.Millisecond):
	}
}

type chanMonitor struct {
	changes chan struct{}
	closed  atomic.Int32
}

func newChanMonitor() *chanMonitor { return &chanMonitor{changes: make(chan struct{}, 1)} }

func (m *chanMonitor) Changes() <-chan struct{} { return m.changes }

func (m *chanMonitor) Close() error {
	m.closed.Add(1)
	return nil
}

func TestCombineForwardsEitherSource(t *testing.T) {
	native, poll := newChanMonitor(), newChanMonitor()
	m := Combine(native, poll)

	for _, src := range []*chanMonitor{native, poll} {
		src.changes <- struct{}{}
		select {
		case <-m.Changes():
		case <-time.After(time.Second):
			t.Fatalf("expected change signal")
		}
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.EqualValues(t, 1, native.closed.Load())
	assert.EqualValues(t, 1, poll.closed.Load())
}
