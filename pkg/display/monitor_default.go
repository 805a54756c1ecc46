//go:build !darwin

package display

import "time"

// NewMonitor returns a polling monitor on platforms without a native
// reconfiguration callback.
func NewMonitor(interval time.Duration) (Monitor, error) {
	return NewPollMonitor(interval, nil), nil
}
