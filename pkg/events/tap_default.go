//go:build !darwin

package events

import (
	"fmt"
	"runtime"

	"github.com/offlinefirst/mousewall/pkg/display"
)

type unsupportedInterceptor struct{}

// NewSystem returns an interceptor whose Install always fails; there is no
// modifying pointer tap outside darwin. Use NewSynthetic for dry runs.
func NewSystem() Interceptor {
	return unsupportedInterceptor{}
}

func (unsupportedInterceptor) Install(TapOptions) (*Handle, error) {
	return nil, fmt.Errorf("%w: %w (%s)", ErrInstallFailure, ErrUnsupported, runtime.GOOS)
}

func (unsupportedInterceptor) Uninstall(h *Handle) {
	_ = h.Close()
}

type unsupportedCursor struct{}

// NewCursor returns a cursor that cannot read or move the pointer.
func NewCursor() Cursor {
	return unsupportedCursor{}
}

func (unsupportedCursor) Location() (display.Point, error) {
	return display.Point{}, fmt.Errorf("pointer location: %w", ErrUnsupported)
}

func (unsupportedCursor) Warp(display.Point) error {
	return fmt.Errorf("warp pointer: %w", ErrUnsupported)
}
