//go:build !darwin

package permissions

import (
	"errors"
	"runtime"
)

// SystemTrust returns a source that never reports trust; there is no
// accessibility grant to query outside darwin.
func SystemTrust() TrustSource {
	return TrustFuncs{}
}

// OpenSettings is unsupported outside darwin.
func OpenSettings() error {
	return errors.New("accessibility settings unavailable on " + runtime.GOOS)
}
