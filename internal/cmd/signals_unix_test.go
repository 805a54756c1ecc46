//go:build unix

package cmd

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/offlinefirst/mousewall/pkg/confine"
)

func TestSignalAction(t *testing.T) {
	assert.Equal(t, actionToggle, signalAction(unix.SIGUSR1))
	assert.Equal(t, actionRefresh, signalAction(unix.SIGUSR2))
	assert.Equal(t, actionNone, signalAction(unix.SIGHUP))
}

func TestDaemonControlSignals(t *testing.T) {
	f := newFixture(true)
	signals := make(chan os.Signal, 2)
	rd := startDaemonWithSignals(t, testConfig(), f.platform(), signals)
	require.Equal(t, confine.Enabled, rd.snapshot(t).State)

	signals <- unix.SIGUSR1
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Disabled }, 5*time.Second, 10*time.Millisecond)

	signals <- unix.SIGUSR1
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Enabled }, 5*time.Second, 10*time.Millisecond)

	f.trust.trusted.Store(false)
	signals <- unix.SIGUSR2
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Disabled }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(rd.logs.String(), "confinement history reported")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, rd.logs.String(), "reason=access_revoked")
}
