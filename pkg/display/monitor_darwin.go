//go:build darwin

package display

/*
#cgo darwin LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>
#include <stdint.h>

extern void goDisplayReconfigured(uint32_t display, uint32_t flags, uintptr_t handle);

static void displayReconfigured(CGDirectDisplayID display, CGDisplayChangeSummaryFlags flags, void *userInfo) {
        goDisplayReconfigured(display, flags, (uintptr_t)userInfo);
}

static int registerReconfiguration(uintptr_t handle) {
        return CGDisplayRegisterReconfigurationCallback(displayReconfigured, (void *)handle) == kCGErrorSuccess;
}

static void removeReconfiguration(uintptr_t handle) {
        CGDisplayRemoveReconfigurationCallback(displayReconfigured, (void *)handle);
}

static int isBeginConfiguration(uint32_t flags) {
        return (flags & kCGDisplayBeginConfigurationFlag) != 0;
}
*/
import "C"

import (
	"errors"
	"runtime/cgo"
	"sync"
	"time"
)

type quartzMonitor struct {
	changes chan struct{}
	handle  cgo.Handle
	once    sync.Once
}

// NewMonitor registers a CoreGraphics reconfiguration callback and backs it
// with a poll of the display list every interval. The callback is delivered
// through the main run loop, which is not serviced in every hosting setup; the
// poll covers that case. An interval <= 0 leaves the callback alone.
func NewMonitor(interval time.Duration) (Monitor, error) {
	quartz, err := newQuartzMonitor()
	if interval <= 0 {
		return quartz, err
	}
	poll := NewPollMonitor(interval, nil)
	if err != nil {
		return poll, nil
	}
	return Combine(quartz, poll), nil
}

func newQuartzMonitor() (Monitor, error) {
	m := &quartzMonitor{changes: make(chan struct{}, 1)}
	m.handle = cgo.NewHandle(m)
	if C.registerReconfiguration(C.uintptr_t(m.handle)) == 0 {
		m.handle.Delete()
		return nil, errors.New("failed to register display reconfiguration callback")
	}
	return m, nil
}

func (m *quartzMonitor) Changes() <-chan struct{} { return m.changes }

func (m *quartzMonitor) Close() error {
	m.once.Do(func() {
		C.removeReconfiguration(C.uintptr_t(m.handle))
		m.handle.Delete()
	})
	return nil
}

//export goDisplayReconfigured
func goDisplayReconfigured(_ C.uint32_t, flags C.uint32_t, handle C.uintptr_t) {
	// Each reconfiguration is reported twice; only the completion matters.
	if C.isBeginConfiguration(flags) != 0 {
		return
	}
	m, ok := cgo.Handle(handle).Value().(*quartzMonitor)
	if !ok {
		return
	}
	signal(m.changes)
}
