package runloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-loop.Done():
		case <-time.After(2 * time.Second):
			t.Errorf("run loop did not stop")
		}
	})
	return loop, cancel
}

func TestDoRunsTasksInOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, loop.Post(func() { order = append(order, i) }))
	}
	var snapshot []int
	require.NoError(t, loop.Do(context.Background(), func() {
		snapshot = append(snapshot, order...)
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestTasksPostedBeforeRunExecute(t *testing.T) {
	loop := New(Options{})
	var ran atomic.Bool
	require.NoError(t, loop.Post(func() { ran.Store(true) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	require.NoError(t, loop.Do(context.Background(), func() {}))
	assert.True(t, ran.Load())
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	loop, _ := startLoop(t)
	require.NoError(t, loop.Do(context.Background(), func() { panic("boom") }))

	var ran bool
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestPostAfterStop(t *testing.T) {
	loop := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	require.NoError(t, loop.Do(context.Background(), func() {}))
	cancel()
	<-loop.Done()

	assert.True(t, errors.Is(loop.Post(func() {}), ErrStopped))
	assert.True(t, errors.Is(loop.Do(context.Background(), func() {}), ErrStopped))
	assert.True(t, errors.Is(loop.Run(context.Background()), ErrRunning))
}

func TestPostReportsFullQueue(t *testing.T) {
	loop := New(Options{QueueSize: 1})
	require.NoError(t, loop.Post(func() {}))
	assert.True(t, errors.Is(loop.Post(func() {}), ErrQueueFull))
}

func TestDoHonoursContext(t *testing.T) {
	loop := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := loop.Do(ctx, func() {})
	assert.True(t, errors.Is(err, context.Canceled))
}
