// Package events intercepts pointer-motion events and clamps them to a display
// rectangle, using either a modifying macOS Quartz event tap (with
// Accessibility approval) or a deterministic synthetic interceptor for
// non-darwin platforms and automated tests.
package events
