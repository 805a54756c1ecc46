package cmd

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/mousewall/pkg/config"
	"github.com/offlinefirst/mousewall/pkg/confine"
	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/events"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testTrust struct {
	trusted       atomic.Bool
	grantOnPrompt bool
	prompts       atomic.Int32
}

func (f *testTrust) Trusted() bool { return f.trusted.Load() }

func (f *testTrust) Prompt() {
	f.prompts.Add(1)
	if f.grantOnPrompt {
		f.trusted.Store(true)
	}
}

type testScreens struct {
	mu     sync.Mutex
	bounds []display.Bounds
}

func newTestScreens(bounds ...display.Bounds) *testScreens {
	return &testScreens{bounds: bounds}
}

func (s *testScreens) set(bounds ...display.Bounds) {
	s.mu.Lock()
	s.bounds = bounds
	s.mu.Unlock()
}

func (s *testScreens) list() []display.Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]display.Display, 0, len(s.bounds))
	for i, b := range s.bounds {
		out = append(out, display.Display{Index: i, Primary: i == 0, Bounds: b})
	}
	return out
}

type testMonitor struct {
	changes chan struct{}
	closed  atomic.Bool
}

func (m *testMonitor) Changes() <-chan struct{} { return m.changes }

func (m *testMonitor) Close() error {
	m.closed.Store(true)
	return nil
}

type fixture struct {
	trust     *testTrust
	screens   *testScreens
	synthetic *events.Synthetic
	monitor   *testMonitor
	settings  atomic.Int32
}

func newFixture(trusted bool) *fixture {
	f := &fixture{
		trust:     &testTrust{},
		screens:   newTestScreens(display.Bounds{MaxX: 1920, MaxY: 1080}, display.Bounds{MinX: 1920, MaxX: 3840, MaxY: 1080}),
		synthetic: events.NewSynthetic(display.Point{X: 10, Y: 10}),
		monitor:   &testMonitor{changes: make(chan struct{}, 1)},
	}
	f.trust.trusted.Store(trusted)
	return f
}

func (f *fixture) platform() platform {
	return platform{
		name:  "test",
		trust: f.trust,
		openSettings: func() error {
			f.settings.Add(1)
			return nil
		},
		displays:    f.screens.list,
		interceptor: f.synthetic,
		cursor:      f.synthetic,
		newMonitor: func(time.Duration) (display.Monitor, error) {
			return f.monitor, nil
		},
	}
}

func withPlatform(t *testing.T, p platform) {
	t.Helper()
	previous := newPlatform
	newPlatform = func(bool) platform { return p }
	t.Cleanup(func() { newPlatform = previous })
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Hotkey.Toggle = ""
	cfg.Permissions.PollIntervalSeconds = 0
	return cfg
}

type runningDaemon struct {
	d      *daemon
	cancel context.CancelFunc
	done   chan error
	out    *syncBuffer
	logs   *syncBuffer

	once sync.Once
	err  error
}

func startDaemon(t *testing.T, cfg config.Config, p platform) *runningDaemon {
	t.Helper()
	return startDaemonWithSignals(t, cfg, p, nil)
}

func startDaemonWithSignals(t *testing.T, cfg config.Config, p platform, signals <-chan os.Signal) *runningDaemon {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan *daemon, 1)
	rd := &runningDaemon{cancel: cancel, done: make(chan error, 1), out: &syncBuffer{}, logs: &syncBuffer{}}

	go func() {
		rd.done <- runDaemon(ctx, daemonOptions{
			Config:   cfg,
			Logger:   slog.New(slog.NewTextHandler(rd.logs, nil)),
			Platform: p,
			Stdout:   rd.out,
			Signals:  signals,
			ready:    func(d *daemon) { ready <- d },
		})
	}()

	select {
	case rd.d = <-ready:
	case err := <-rd.done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}
	t.Cleanup(rd.stop)
	return rd
}

func (rd *runningDaemon) stop() {
	rd.once.Do(func() {
		rd.cancel()
		select {
		case rd.err = <-rd.done:
		case <-time.After(5 * time.Second):
			rd.err = context.DeadlineExceeded
		}
	})
}

func (rd *runningDaemon) snapshot(t *testing.T) confine.Status {
	t.Helper()
	var status confine.Status
	require.NoError(t, rd.d.loop.Do(context.Background(), func() { status = rd.d.engine.Snapshot() }))
	return status
}

func (rd *runningDaemon) inject(t *testing.T, f *fixture, p display.Point) display.Point {
	t.Helper()
	var out display.Point
	require.NoError(t, rd.d.loop.Do(context.Background(), func() {
		out, _ = f.synthetic.Inject(events.KindMouseMoved, p)
	}))
	return out
}

func TestDaemonConfinesAndFollowsDisplays(t *testing.T) {
	f := newFixture(true)
	rd := startDaemon(t, testConfig(), f.platform())

	status := rd.snapshot(t)
	require.Equal(t, confine.Enabled, status.State)
	assert.True(t, status.Trusted)
	assert.Equal(t, display.Point{X: 1919, Y: 400}, rd.inject(t, f, display.Point{X: 2500, Y: 400}))

	f.screens.set(display.Bounds{MaxX: 2560, MaxY: 1440})
	f.monitor.changes <- struct{}{}
	wide := display.Bounds{MaxX: 2560, MaxY: 1440}
	require.Eventually(t, func() bool { return rd.snapshot(t).Bounds == wide }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, display.Point{X: 2500, Y: 400}, rd.inject(t, f, display.Point{X: 2500, Y: 400}))

	installs, _, _ := f.synthetic.Counts()
	assert.Equal(t, 1, installs)

	rd.stop()
	require.NoError(t, rd.err)
	assert.False(t, f.synthetic.Installed())
	assert.True(t, f.monitor.closed.Load())
	assert.Contains(t, rd.out.String(), "state=enabled trusted=true")
}

func TestDaemonToggleAndRevocation(t *testing.T) {
	f := newFixture(true)
	cfg := testConfig()
	cfg.Wall.StartEnabled = false
	rd := startDaemon(t, cfg, f.platform())

	assert.Equal(t, confine.Disabled, rd.snapshot(t).State)

	rd.d.toggle("test")
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Enabled }, 5*time.Second, 10*time.Millisecond)

	f.trust.trusted.Store(false)
	rd.d.refreshAccess("test")
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Disabled }, 5*time.Second, 10*time.Millisecond)

	status := rd.snapshot(t)
	assert.False(t, status.Trusted)
	assert.Equal(t, confine.ReasonAccessRevoked, status.Reason)
	assert.False(t, f.synthetic.Installed())
}

func TestDaemonLogsHistoryOnShutdown(t *testing.T) {
	f := newFixture(true)
	rd := startDaemon(t, testConfig(), f.platform())
	require.Equal(t, confine.Enabled, rd.snapshot(t).State)

	rd.d.toggle("test")
	require.Eventually(t, func() bool { return rd.snapshot(t).State == confine.Disabled }, 5*time.Second, 10*time.Millisecond)
	assert.NotContains(t, rd.logs.String(), "confinement transition")

	rd.stop()
	require.NoError(t, rd.err)

	logs := rd.logs.String()
	assert.Contains(t, logs, `msg="confinement transition"`)
	assert.Contains(t, logs, "reason=start")
	assert.Contains(t, logs, "reason=toggle")
	assert.Contains(t, logs, "transitions=2")
}

func TestDaemonUntrustedNeverEnables(t *testing.T) {
	f := newFixture(false)
	rd := startDaemon(t, testConfig(), f.platform())

	assert.Equal(t, confine.Disabled, rd.snapshot(t).State)
	rd.d.toggle("test")
	rd.d.toggle("test")
	assert.Equal(t, confine.Disabled, rd.snapshot(t).State)

	installs, _, _ := f.synthetic.Counts()
	assert.Zero(t, installs)
	assert.Zero(t, f.trust.prompts.Load())
}

func TestDaemonPromptOnStart(t *testing.T) {
	f := newFixture(false)
	f.trust.grantOnPrompt = true
	cfg := testConfig()
	cfg.Permissions.PromptOnStart = true
	rd := startDaemon(t, cfg, f.platform())

	assert.Equal(t, int32(1), f.trust.prompts.Load())
	assert.Equal(t, int32(1), f.settings.Load())
	assert.Equal(t, confine.Enabled, rd.snapshot(t).State)
}

func TestDaemonRejectsInvalidHotkey(t *testing.T) {
	f := newFixture(true)
	cfg := testConfig()
	cfg.Hotkey.Toggle = "ctrl+"
	err := runDaemon(context.Background(), daemonOptions{Config: cfg, Platform: f.platform()})
	require.Error(t, err)
}

func TestApplyConfigUpdatesLevel(t *testing.T) {
	levelVar := new(slog.LevelVar)
	d := &daemon{cfg: testConfig(), logger: newTestLogger(), levelVar: levelVar}

	next := testConfig()
	next.Logging.Level = "debug"
	d.applyConfig(next, nil)
	assert.Equal(t, slog.LevelDebug, levelVar.Level())

	d.applyConfig(config.Config{}, assert.AnError)
	assert.Equal(t, slog.LevelDebug, levelVar.Level())
}

func TestRunCommandPlanOnly(t *testing.T) {
	ctx := &AppContext{Config: config.Default(), Logger: newTestLogger()}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.Bool("plan-only", false, "")
	fs.Bool("dry-run", false, "")
	if err := fs.Parse([]string{"-plan-only", "-dry-run"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var stdout bytes.Buffer
	if err := runConfine(fs, nil, ctx, &stdout, io.Discard); err != nil {
		t.Fatalf("runConfine returned error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Resolved configuration", "dry_run: true", "hotkey.toggle: ctrl+alt+cmd+m", "wall.start_enabled: true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in plan output, got %q", want, out)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	f := newFixture(true)
	withPlatform(t, f.platform())
	previous := detectEnvironment
	detectEnvironment = func() events.Environment {
		return events.Environment{Provider: "quartz_event_tap", Available: true, Permission: "granted"}
	}
	t.Cleanup(func() { detectEnvironment = previous })

	ctx := &AppContext{Config: config.Default(), Logger: newTestLogger()}
	var stdout bytes.Buffer
	require.NoError(t, runStatus(flag.NewFlagSet("status", flag.ContinueOnError), nil, ctx, &stdout, io.Discard))

	out := stdout.String()
	assert.Contains(t, out, "Accessibility trusted: true")
	assert.Contains(t, out, "provider=quartz_event_tap available=true")
	assert.Contains(t, out, "Displays: 2")
	assert.Contains(t, out, "(primary)")
	assert.Contains(t, out, "Primary bounds: "+display.Bounds{MaxX: 1920, MaxY: 1080}.String())
	assert.NotContains(t, out, "fallback", "a real 1920x1080 panel is not the fallback")
	assert.NotContains(t, out, "mousewall authorize")
}

func TestStatusCommandReportsFallback(t *testing.T) {
	f := newFixture(true)
	f.screens.set()
	withPlatform(t, f.platform())

	ctx := &AppContext{Config: config.Default(), Logger: newTestLogger()}
	var stdout bytes.Buffer
	require.NoError(t, runStatus(flag.NewFlagSet("status", flag.ContinueOnError), nil, ctx, &stdout, io.Discard))

	out := stdout.String()
	assert.Contains(t, out, "(fallback; display query unavailable")
	assert.Contains(t, out, "Displays: none detected")
}

func TestAuthorizeCommand(t *testing.T) {
	f := newFixture(false)
	f.trust.grantOnPrompt = true
	withPlatform(t, f.platform())

	fs := flag.NewFlagSet("authorize", flag.ContinueOnError)
	fs.Bool("no-settings", false, "")
	require.NoError(t, fs.Parse(nil))

	ctx := &AppContext{Config: config.Default(), Logger: newTestLogger()}
	var stdout bytes.Buffer
	require.NoError(t, runAuthorize(fs, nil, ctx, &stdout, io.Discard))

	assert.Contains(t, stdout.String(), "Accessibility access granted.")
	assert.Equal(t, int32(1), f.trust.prompts.Load())
	assert.Equal(t, int32(1), f.settings.Load())
}

func TestAuthorizeCommandStillMissing(t *testing.T) {
	f := newFixture(false)
	withPlatform(t, f.platform())

	fs := flag.NewFlagSet("authorize", flag.ContinueOnError)
	fs.Bool("no-settings", false, "")
	require.NoError(t, fs.Parse([]string{"-no-settings"}))

	ctx := &AppContext{Config: config.Default(), Logger: newTestLogger()}
	var stdout bytes.Buffer
	require.NoError(t, runAuthorize(fs, nil, ctx, &stdout, io.Discard))

	assert.Contains(t, stdout.String(), "not granted yet")
	assert.Zero(t, f.settings.Load())
}
