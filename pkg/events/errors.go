package events

import "errors"

var (
	// ErrPermissionDenied indicates the host must grant Accessibility trust.
	ErrPermissionDenied = errors.New("macOS accessibility permission required for event interception")
	// ErrInstallFailure indicates the OS refused to create the tap.
	ErrInstallFailure = errors.New("event tap install failed")
	// ErrResourceExhausted indicates the OS could not allocate the tap or its run loop source.
	ErrResourceExhausted = errors.New("event tap resources exhausted")
	// ErrUnsupported indicates the platform has no modifying event tap.
	ErrUnsupported = errors.New("event interception unsupported on this platform")
)
