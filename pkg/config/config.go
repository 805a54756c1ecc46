package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "mousewall.yaml"

// Config captures the user-adjustable knobs for the confinement daemon.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Wall        WallConfig        `yaml:"wall" toml:"wall"`
	Permissions PermissionsConfig `yaml:"permissions" toml:"permissions"`
	Display     DisplayConfig     `yaml:"display" toml:"display"`
	Hotkey      HotkeyConfig      `yaml:"hotkey" toml:"hotkey"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-" toml:"-"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// WallConfig controls the confinement engine.
type WallConfig struct {
	StartEnabled bool `yaml:"start_enabled" toml:"start_enabled"`
	WarpOnEnable bool `yaml:"warp_on_enable" toml:"warp_on_enable"`
	HistorySize  int  `yaml:"history_size" toml:"history_size"`
}

// PermissionsConfig controls how the accessibility grant is requested and
// re-checked.
type PermissionsConfig struct {
	PromptOnStart       bool `yaml:"prompt_on_start" toml:"prompt_on_start"`
	OpenSettings        bool `yaml:"open_settings" toml:"open_settings"`
	PollIntervalSeconds int  `yaml:"poll_interval_seconds" toml:"poll_interval_seconds"`
}

// DisplayConfig controls display tracking.
type DisplayConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds" toml:"poll_interval_seconds"`
	FallbackWidth       int `yaml:"fallback_width" toml:"fallback_width"`
	FallbackHeight      int `yaml:"fallback_height" toml:"fallback_height"`
}

// HotkeyConfig names the global toggle combination. An empty value disables it.
type HotkeyConfig struct {
	Toggle string `yaml:"toggle" toml:"toggle"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Wall: WallConfig{
			StartEnabled: true,
			WarpOnEnable: true,
			HistorySize:  16,
		},
		Permissions: PermissionsConfig{
			PromptOnStart:       false,
			OpenSettings:        true,
			PollIntervalSeconds: 2,
		},
		Display: DisplayConfig{
			PollIntervalSeconds: 2,
			FallbackWidth:       1920,
			FallbackHeight:      1080,
		},
		Hotkey: HotkeyConfig{
			Toggle: "ctrl+alt+cmd+m",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./mousewall.yaml but
// tolerates a missing file. Environment overrides are applied last.
func Load(path string) (Config, error) {
	return load(path, lookupEnv)
}

func load(path string, lookup LookupEnvFunc) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	switch {
	case err == nil:
		if err := decode(candidate, data, &cfg); err != nil {
			return cfg, err
		}
		cfg.Source = candidate
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return cfg, fmt.Errorf("config file %q not found", candidate)
		}
	default:
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := cfg.ApplyEnvOverrides(lookup); err != nil {
		return cfg, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("decode toml %q: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("decode toml %q: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode yaml %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Wall.HistorySize <= 0 {
		return errors.New("wall.history_size must be positive")
	}
	if c.Permissions.PollIntervalSeconds < 0 {
		return errors.New("permissions.poll_interval_seconds must not be negative")
	}
	if c.Display.PollIntervalSeconds <= 0 {
		return errors.New("display.poll_interval_seconds must be positive")
	}
	if c.Display.FallbackWidth <= 0 || c.Display.FallbackHeight <= 0 {
		return errors.New("display.fallback_width and display.fallback_height must be positive")
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	if level, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = level
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
	if c.Wall.HistorySize == 0 {
		c.Wall.HistorySize = defaults.Wall.HistorySize
	}
	if c.Display.PollIntervalSeconds == 0 {
		c.Display.PollIntervalSeconds = defaults.Display.PollIntervalSeconds
	}
	if c.Display.FallbackWidth == 0 {
		c.Display.FallbackWidth = defaults.Display.FallbackWidth
	}
	if c.Display.FallbackHeight == 0 {
		c.Display.FallbackHeight = defaults.Display.FallbackHeight
	}
	c.Hotkey.Toggle = strings.TrimSpace(c.Hotkey.Toggle)
}

// PermissionPollInterval is zero when polling is disabled.
func (c Config) PermissionPollInterval() time.Duration {
	return time.Duration(c.Permissions.PollIntervalSeconds) * time.Second
}

func (c Config) DisplayPollInterval() time.Duration {
	return time.Duration(c.Display.PollIntervalSeconds) * time.Second
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return "json", nil
	case "", "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
