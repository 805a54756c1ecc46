//go:build darwin

package runloop

/*
#cgo darwin LDFLAGS: -framework CoreFoundation
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

extern void goRunLoopPerform(uintptr_t handle);

static void performTasks(void *info) {
        goRunLoopPerform((uintptr_t)info);
}

static CFRunLoopSourceRef attachTaskSource(uintptr_t handle) {
        CFRunLoopSourceContext context = {0};
        context.info = (void *)handle;
        context.perform = performTasks;
        CFRunLoopSourceRef source = CFRunLoopSourceCreate(kCFAllocatorDefault, 0, &context);
        if (source == NULL) {
                return NULL;
        }
        CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
        return source;
}

static void signalTaskSource(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopSourceSignal(source);
        CFRunLoopWakeUp(loop);
}

static void releaseTaskSource(CFRunLoopSourceRef source) {
        CFRunLoopSourceInvalidate(source);
        CFRelease(source);
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopCurrentRunLoop(void) {
        CFRunLoopStop(CFRunLoopGetCurrent());
}
*/
import "C"

import (
	"context"
	"runtime/cgo"
)

func (l *Loop) run(ctx context.Context) {
	handle := cgo.NewHandle(l)
	defer handle.Delete()

	source := C.attachTaskSource(C.uintptr_t(handle))
	if source == 0 {
		l.logger.Error("failed to create run loop task source; falling back to channel loop")
		l.runChannels(ctx)
		return
	}
	defer C.releaseTaskSource(source)

	loop := C.currentRunLoop()
	l.setWake(func() {
		C.signalTaskSource(loop, source)
	})
	// Pick up anything posted before the loop started.
	C.signalTaskSource(loop, source)

	stopWatcher := make(chan struct{})
	defer close(stopWatcher)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopWatcher:
			return
		}
		// CFRunLoopStop is issued from the loop so it cannot race the
		// start of CFRunLoopRun.
		l.postBlocking(func() { C.stopCurrentRunLoop() })
	}()

	C.runCurrentRunLoop()
	l.setWake(nil)
	l.drain()
}

func (l *Loop) runChannels(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

//export goRunLoopPerform
func goRunLoopPerform(handle C.uintptr_t) {
	l, ok := cgo.Handle(handle).Value().(*Loop)
	if !ok {
		return
	}
	l.drain()
}
