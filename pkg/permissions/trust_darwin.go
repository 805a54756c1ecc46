//go:build darwin

package permissions

/*
#cgo darwin LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>

static Boolean axIsTrusted(void) {
        return AXIsProcessTrusted();
}

static Boolean axPromptTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}
*/
import "C"

import "os/exec"

type axTrustSource struct{}

// SystemTrust returns the Accessibility trust source for this platform.
func SystemTrust() TrustSource {
	return axTrustSource{}
}

func (axTrustSource) Trusted() bool {
	return C.axIsTrusted() != C.Boolean(0)
}

func (axTrustSource) Prompt() {
	C.axPromptTrusted()
}

// OpenSettings opens the Accessibility pane of System Settings without
// waiting for it.
func OpenSettings() error {
	cmd := exec.Command("open", SettingsURL)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
