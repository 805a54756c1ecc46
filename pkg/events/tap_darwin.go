//go:build darwin

package events

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

extern CGEventRef goConfineEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CGEventMask cgEventMaskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static CFMachPortRef createConfineTap(uintptr_t handle, CGEventMask mask) {
        return CGEventTapCreate(kCGHIDEventTap,
                                kCGHeadInsertEventTap,
                                kCGEventTapOptionDefault,
                                mask,
                                goConfineEvent,
                                (void *)handle);
}

static CFRunLoopSourceRef attachToCurrentRunLoop(CFMachPortRef tap) {
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        if (source == NULL) {
                return NULL;
        }
        CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
        CGEventTapEnable(tap, true);
        return source;
}

static void enableTap(CFMachPortRef tap) {
        CGEventTapEnable(tap, true);
}

static void destroyTap(CFMachPortRef tap, CFRunLoopSourceRef source) {
        CGEventTapEnable(tap, false);
        if (source != NULL) {
                CFRunLoopSourceInvalidate(source);
                CFRelease(source);
        }
        CFMachPortInvalidate(tap);
        CFRelease(tap);
}

static double cgEventGetX(CGEventRef event) {
        return CGEventGetLocation(event).x;
}

static double cgEventGetY(CGEventRef event) {
        return CGEventGetLocation(event).y;
}

static void cgEventSetXY(CGEventRef event, double x, double y) {
        CGEventSetLocation(event, CGPointMake(x, y));
}

static int pointerLocation(double *x, double *y) {
        CGEventRef event = CGEventCreate(NULL);
        if (event == NULL) {
                return 0;
        }
        CGPoint point = CGEventGetLocation(event);
        CFRelease(event);
        *x = point.x;
        *y = point.y;
        return 1;
}

static int warpPointer(double x, double y) {
        CGError err = CGWarpMouseCursorPosition(CGPointMake(x, y));
        if (err != kCGErrorSuccess) {
                return (int)err;
        }
        return (int)CGAssociateMouseAndMouseCursorPosition(true);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/permissions"
)

type quartzInterceptor struct {
	trusted func() bool
}

// NewSystem returns the Quartz event tap interceptor. Install must run on a
// thread with a running CFRunLoop; callbacks are delivered on that thread.
func NewSystem() Interceptor {
	return &quartzInterceptor{trusted: permissions.SystemTrust().Trusted}
}

func (q *quartzInterceptor) Install(opts TapOptions) (*Handle, error) {
	if !q.trusted() {
		return nil, ErrPermissionDenied
	}
	h, err := newHandle(opts)
	if err != nil {
		return nil, err
	}

	mask := C.cgEventMaskBit(C.kCGEventMouseMoved) |
		C.cgEventMaskBit(C.kCGEventLeftMouseDragged) |
		C.cgEventMaskBit(C.kCGEventRightMouseDragged) |
		C.cgEventMaskBit(C.kCGEventOtherMouseDragged)

	ref := cgo.NewHandle(h)
	tap := C.createConfineTap(C.uintptr_t(ref), mask)
	if tap == 0 {
		ref.Delete()
		if !q.trusted() {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("%w: CGEventTapCreate returned NULL: %w", ErrInstallFailure, ErrResourceExhausted)
	}
	source := C.attachToCurrentRunLoop(tap)
	if source == 0 {
		C.destroyTap(tap, 0)
		ref.Delete()
		return nil, fmt.Errorf("%w: run loop source: %w", ErrInstallFailure, ErrResourceExhausted)
	}

	h.reenable = func() {
		C.enableTap(tap)
	}
	h.release = func() {
		C.destroyTap(tap, source)
		ref.Delete()
	}
	return h, nil
}

func (q *quartzInterceptor) Uninstall(h *Handle) {
	_ = h.Close()
}

//export goConfineEvent
func goConfineEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	h, ok := cgo.Handle(uintptr(userInfo)).Value().(*Handle)
	if !ok {
		return event
	}

	var kind Kind
	switch eventType {
	case C.kCGEventMouseMoved:
		kind = KindMouseMoved
	case C.kCGEventLeftMouseDragged:
		kind = KindLeftMouseDragged
	case C.kCGEventRightMouseDragged:
		kind = KindRightMouseDragged
	case C.kCGEventOtherMouseDragged:
		kind = KindOtherMouseDragged
	case C.kCGEventTapDisabledByTimeout:
		kind = KindTapDisabledByTimeout
	case C.kCGEventTapDisabledByUserInput:
		kind = KindTapDisabledByUserInput
	default:
		return event
	}

	var p display.Point
	if kind.IsPointerMotion() {
		p = display.Point{X: float64(C.cgEventGetX(event)), Y: float64(C.cgEventGetY(event))}
	}
	if out, action := h.handle(kind, p); action == ActionRewrite {
		C.cgEventSetXY(event, C.double(out.X), C.double(out.Y))
	}
	return event
}

type quartzCursor struct{}

// NewCursor returns the CoreGraphics pointer controller.
func NewCursor() Cursor {
	return quartzCursor{}
}

func (quartzCursor) Location() (display.Point, error) {
	var x, y C.double
	if C.pointerLocation(&x, &y) == 0 {
		return display.Point{}, errors.New("pointer location unavailable")
	}
	return display.Point{X: float64(x), Y: float64(y)}, nil
}

func (quartzCursor) Warp(p display.Point) error {
	if code := C.warpPointer(C.double(p.X), C.double(p.Y)); code != 0 {
		return fmt.Errorf("warp pointer to (%g,%g): CGError %d", p.X, p.Y, int(code))
	}
	return nil
}
