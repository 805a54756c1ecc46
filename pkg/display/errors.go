package display

import "errors"

// ErrBoundsUnavailable indicates the platform could not report a primary display.
var ErrBoundsUnavailable = errors.New("primary display bounds unavailable")
