package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
)

type action int

const (
	actionNone action = iota
	actionToggle
	actionRefresh
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Confine the pointer to the primary display until interrupted",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("dry-run", false, "Confine a simulated pointer instead of installing the system event tap")
			fs.Bool("plan-only", false, "Print the resolved configuration without starting")
		},
		run: runConfine,
	}
}

func runConfine(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	dryRun := boolFlag(fs, "dry-run")
	if boolFlag(fs, "plan-only") {
		printRunPlan(ctx, dryRun, stdout)
		return nil
	}
	ctx.Logger.Info("run command invoked", "dry_run", dryRun, "config_source", ctx.Config.Source)

	sigCtx, stop := signal.NotifyContext(context.Background(), stopSignals...)
	defer stop()

	var control chan os.Signal
	if len(controlSignals) > 0 {
		control = make(chan os.Signal, 4)
		signal.Notify(control, controlSignals...)
		defer signal.Stop(control)
	}

	return runDaemon(sigCtx, daemonOptions{
		Config:   ctx.Config,
		Logger:   ctx.Logger,
		LevelVar: ctx.LevelVar,
		Platform: newPlatform(dryRun),
		Stdout:   stdout,
		Signals:  control,
	})
}

func printRunPlan(ctx *AppContext, dryRun bool, stdout io.Writer) {
	cfg := ctx.Config
	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", cfg.Source)
	if ctx.EnvFile != "" {
		fmt.Fprintf(stdout, "  env_file: %s\n", ctx.EnvFile)
	}
	fmt.Fprintf(stdout, "  dry_run: %t\n", dryRun)
	fmt.Fprintf(stdout, "  wall.start_enabled: %t\n", cfg.Wall.StartEnabled)
	fmt.Fprintf(stdout, "  wall.warp_on_enable: %t\n", cfg.Wall.WarpOnEnable)
	fmt.Fprintf(stdout, "  wall.history_size: %d\n", cfg.Wall.HistorySize)
	fmt.Fprintf(stdout, "  permissions.prompt_on_start: %t\n", cfg.Permissions.PromptOnStart)
	fmt.Fprintf(stdout, "  permissions.open_settings: %t\n", cfg.Permissions.OpenSettings)
	fmt.Fprintf(stdout, "  permissions.poll_interval_seconds: %d\n", cfg.Permissions.PollIntervalSeconds)
	fmt.Fprintf(stdout, "  display.poll_interval_seconds: %d\n", cfg.Display.PollIntervalSeconds)
	fmt.Fprintf(stdout, "  display.fallback: %dx%d\n", cfg.Display.FallbackWidth, cfg.Display.FallbackHeight)
	hk := cfg.Hotkey.Toggle
	if hk == "" {
		hk = "(disabled)"
	}
	fmt.Fprintf(stdout, "  hotkey.toggle: %s\n", hk)
	fmt.Fprintf(stdout, "  logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", cfg.Logging.Format)
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}
