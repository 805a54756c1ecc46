package buildinfo

import (
	"runtime/debug"
	"testing"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() { readBuildInfo = prev })
}

func withVersion(t *testing.T, v string) {
	t.Helper()
	prev := version
	version = v
	t.Cleanup(func() { version = prev })
}

func TestVersionPrefersStamp(t *testing.T) {
	withVersion(t, "dev")
	SetVersion("")
	SetVersion("v1.2.3")
	if got := Version(); got != "v1.2.3" {
		t.Fatalf("expected stamped version, got %q", got)
	}
}

func TestVersionFromModule(t *testing.T) {
	withVersion(t, "dev")
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}}, true)
	if got := Version(); got != "v0.4.0" {
		t.Fatalf("unexpected version %q", got)
	}
}

func TestVersionFromRevision(t *testing.T) {
	withVersion(t, "dev")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)
	if got := Version(); got != "dev+0123456789ab-dirty" {
		t.Fatalf("unexpected version %q", got)
	}
}

func TestVersionWithoutBuildInfo(t *testing.T) {
	withVersion(t, "dev")
	withBuildInfo(t, nil, false)
	if got := Version(); got != "dev" {
		t.Fatalf("unexpected version %q", got)
	}
}
