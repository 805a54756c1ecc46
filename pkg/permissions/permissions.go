package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for macOS-style prompts.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that permission was previously granted.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user has explicitly denied access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// AccessibilityEnv overrides the accessibility trust query when set.
const AccessibilityEnv = "MOUSEWALL_ACCESSIBILITY"

// SettingsURL opens the Accessibility pane of System Settings.
const SettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// lookupEnv is declared for swapping in tests.
var lookupEnv = func(key string) (string, bool) {
	return os.LookupEnv(key)
}

// ProbeAccessibility reports the coarse accessibility trust state. The env
// override wins; otherwise trusted is consulted on darwin.
func ProbeAccessibility(lookup LookupEnvFunc, trusted func() bool) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(AccessibilityEnv); ok {
		return interpretPermissionFlag("accessibility", value)
	}
	if runtime.GOOS != "darwin" {
		return ProbeResult{Status: StatusUnavailable, Message: "accessibility trust unavailable on this platform"}
	}
	if trusted == nil {
		return ProbeResult{Status: StatusPromptRequired, Message: "accessibility trust required"}
	}
	if trusted() {
		return ProbeResult{Status: StatusGranted, Message: "accessibility trust granted"}
	}
	return ProbeResult{
		Status:   StatusPromptRequired,
		Message:  "accessibility trust required",
		Guidance: "run 'mousewall authorize', then enable mousewall in Privacy & Security > Accessibility",
	}
}

func interpretPermissionFlag(name, value string) ProbeResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "use 'tccutil reset Accessibility' or update " + AccessibilityEnv + " to re-test"}
	case "prompt", "ask":
		return ProbeResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: StatusUnavailable, Message: name + " permission unavailable on this platform"}
	default:
		return ProbeResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// StatusString returns the string representation for status output.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
