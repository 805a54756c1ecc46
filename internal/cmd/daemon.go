package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/offlinefirst/mousewall/pkg/config"
	"github.com/offlinefirst/mousewall/pkg/confine"
	"github.com/offlinefirst/mousewall/pkg/display"
	"github.com/offlinefirst/mousewall/pkg/hotkey"
	"github.com/offlinefirst/mousewall/pkg/logging"
	"github.com/offlinefirst/mousewall/pkg/permissions"
	"github.com/offlinefirst/mousewall/pkg/runloop"
)

const shutdownTimeout = 5 * time.Second

type daemonOptions struct {
	Config   config.Config
	Logger   *slog.Logger
	LevelVar *slog.LevelVar
	Platform platform
	Stdout   io.Writer
	// Signals carries control signals (toggle, refresh). Nil disables them.
	Signals <-chan os.Signal

	// ready runs after startup completed on the loop.
	ready func(d *daemon)
}

type daemon struct {
	cfg      config.Config
	logger   *slog.Logger
	levelVar *slog.LevelVar
	platform platform
	stdout   io.Writer

	loop    *runloop.Loop
	gate    *permissions.Gate
	tracker *display.Tracker
	engine  *confine.Engine
	monitor display.Monitor
}

// runDaemon owns the confinement engine until ctx is cancelled. Every engine
// call is funnelled through the run loop; the goroutines started here only
// post work to it.
func runDaemon(ctx context.Context, opts daemonOptions) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	p := opts.Platform

	combo, err := hotkey.Parse(cfg.Hotkey.Toggle)
	if err != nil {
		return fmt.Errorf("hotkey.toggle: %w", err)
	}

	d := &daemon{
		cfg:      cfg,
		logger:   logger,
		levelVar: opts.LevelVar,
		platform: p,
		stdout:   stdout,
		loop:     runloop.New(runloop.Options{Logger: logger}),
	}

	var openSettings func() error
	if cfg.Permissions.OpenSettings {
		openSettings = p.openSettings
	}
	d.gate = permissions.NewGate(permissions.GateOptions{
		Source:       p.trust,
		OpenSettings: openSettings,
		Logger:       logger,
	})
	d.tracker = display.NewTracker(display.TrackerOptions{
		Source: p.source(),
		Fallback: display.Bounds{
			MaxX: float64(cfg.Display.FallbackWidth),
			MaxY: float64(cfg.Display.FallbackHeight),
		},
		Logger: logger,
	})
	d.engine, err = confine.New(confine.Options{
		Gate:        d.gate,
		Tracker:     d.tracker,
		Interceptor: p.interceptor,
		Cursor:      p.cursor,
		SkipWarp:    !cfg.Wall.WarpOnEnable,
		HistorySize: cfg.Wall.HistorySize,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	// The loop owns the calling goroutine. When that is the main thread its
	// CFRunLoop is the one CoreGraphics delivers display callbacks through.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		defer stopLoop()
		result <- d.serve(ctx, opts, combo)
	}()
	if err := d.loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run loop exited", "error", err)
	}
	return <-result
}

// serve drives the daemon from off the loop until ctx is cancelled.
func (d *daemon) serve(ctx context.Context, opts daemonOptions, combo hotkey.Combo) error {
	cfg, logger := d.cfg, d.logger
	if err := d.loop.Do(ctx, d.startup); err != nil {
		d.shutdown()
		return fmt.Errorf("start confinement engine: %w", err)
	}
	logger.Info("mousewall running", "platform", d.platform.name, "hotkey", combo.String(), "config", cfg.Source)

	workers, cancelWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(workers)
		}()
	}

	statusCh, unsubscribe := d.engine.Subscribe()
	spawn(func(context.Context) { d.printStatus(statusCh) })
	if d.monitor != nil {
		spawn(d.watchDisplays)
	}
	if interval := cfg.PermissionPollInterval(); interval > 0 {
		spawn(func(ctx context.Context) { d.pollTrust(ctx, interval) })
	}
	if !combo.Disabled() {
		spawn(func(ctx context.Context) { d.listenHotkey(ctx, combo) })
	}
	if cfg.Source != "" && cfg.Source != config.Default().Source {
		if err := config.Watch(workers, cfg.Source, 0, d.applyConfig); err != nil {
			logger.Warn("config hot reload unavailable", "error", err)
		}
	}

	if opts.ready != nil {
		opts.ready(d)
	}

	d.waitForSignals(ctx, opts.Signals)

	cancelWorkers()
	d.shutdown()
	unsubscribe()
	wg.Wait()
	logger.Info("mousewall stopped")
	return nil
}

func (d *daemon) startup() {
	d.tracker.Refresh()
	trusted := d.gate.Refresh()
	if !trusted && d.cfg.Permissions.PromptOnStart {
		trusted = d.engine.RequestAccess()
	}
	if !trusted {
		d.logger.Warn("accessibility access required; approve mousewall under System Settings > Privacy & Security > Accessibility or run `mousewall authorize`")
	}

	monitor, err := d.platform.newMonitor(d.cfg.DisplayPollInterval())
	if err != nil {
		d.logger.Warn("display change monitor unavailable", "error", err)
	} else {
		d.monitor = monitor
	}

	if d.cfg.Wall.StartEnabled && trusted {
		if err := d.engine.Start(); err != nil {
			d.logger.Error("start confinement at launch", "error", err)
		}
	}
}

func (d *daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := d.loop.Do(ctx, func() {
		d.engine.Shutdown()
		d.reportHistory()
		if d.monitor != nil {
			if err := d.monitor.Close(); err != nil {
				d.logger.Warn("close display monitor", "error", err)
			}
		}
	})
	if err != nil {
		d.logger.Error("shutdown confinement engine", "error", err)
	}
}

func (d *daemon) waitForSignals(ctx context.Context, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			switch signalAction(sig) {
			case actionToggle:
				d.toggle("signal")
			case actionRefresh:
				d.refreshAccess("signal")
				d.post("signal", d.reportHistory)
			default:
				d.logger.Debug("ignoring signal", "signal", sig.String())
			}
		}
	}
}

func (d *daemon) post(origin string, fn func()) {
	if err := d.loop.Post(fn); err != nil {
		d.logger.Warn("dropped confinement request", "origin", origin, "error", err)
	}
}

func (d *daemon) toggle(origin string) {
	d.post(origin, func() {
		if err := d.engine.Toggle(); err != nil {
			d.logger.Error("toggle confinement", "origin", origin, "error", err)
			return
		}
		if d.engine.State() == confine.Disabled && !d.gate.CurrentlyTrusted() {
			d.logger.Warn("access required: toggle ignored until accessibility is granted", "origin", origin)
		}
	})
}

func (d *daemon) refreshAccess(origin string) {
	d.post(origin, func() { d.engine.RefreshAccess() })
}

// reportHistory logs the retained transitions, oldest first. Loop only.
func (d *daemon) reportHistory() {
	history := d.engine.History()
	for _, tr := range history {
		attrs := []any{"at", tr.At.UTC().Format(time.RFC3339), "state", tr.State.String(), "reason", string(tr.Reason)}
		if tr.Error != "" {
			attrs = append(attrs, "error", tr.Error)
		}
		d.logger.Info("confinement transition", attrs...)
	}
	d.logger.Info("confinement history reported", "transitions", len(history))
}

func (d *daemon) watchDisplays(ctx context.Context) {
	changes := d.monitor.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			d.post("display", d.engine.DisplayChanged)
		}
	}
}

func (d *daemon) pollTrust(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.refreshAccess("poll")
		}
	}
}

func (d *daemon) listenHotkey(ctx context.Context, combo hotkey.Combo) {
	err := hotkey.Listen(ctx, hotkey.Options{Combo: combo, Logger: d.logger}, func() {
		d.toggle("hotkey")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("toggle hotkey unavailable", "combo", combo.String(), "error", err)
	}
}

func (d *daemon) applyConfig(cfg config.Config, err error) {
	if err != nil {
		d.logger.Warn("config reload rejected", "error", err)
		return
	}
	if d.levelVar != nil {
		if lvl, err := logging.ParseLevel(cfg.Logging.Level); err == nil && lvl != d.levelVar.Level() {
			d.levelVar.Set(lvl)
			d.logger.Info("log level updated", "level", cfg.Logging.Level)
		}
	}
	if next, err := hotkey.Parse(cfg.Hotkey.Toggle); err == nil {
		current, _ := hotkey.Parse(d.cfg.Hotkey.Toggle)
		if !next.Equal(current) {
			d.logger.Warn("hotkey change takes effect after restart", "hotkey", next.String())
		}
	}
}

func (d *daemon) printStatus(ch <-chan confine.Status) {
	var last confine.Status
	first := true
	for status := range ch {
		if !first && status.State == last.State && status.Trusted == last.Trusted && status.Bounds == last.Bounds {
			continue
		}
		first = false
		last = status
		fmt.Fprintf(d.stdout, "state=%s trusted=%t bounds=%s", status.State, status.Trusted, status.Bounds)
		if status.Reason != confine.ReasonNone {
			fmt.Fprintf(d.stdout, " reason=%s", status.Reason)
		}
		fmt.Fprintln(d.stdout)
	}
}
