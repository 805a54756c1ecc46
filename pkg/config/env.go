package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "MOUSEWALL_"

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(string) (string, bool)

var lookupEnv LookupEnvFunc = os.LookupEnv

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. An empty path tries .env next to
// the config file and tolerates its absence.
func LoadEnvFile(path, configPath string) (string, error) {
	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		dir := "."
		if configPath != "" {
			dir = filepath.Dir(configPath)
		}
		candidate = filepath.Join(dir, ".env")
	}

	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("env file %q: %w", candidate, err)
	}
	if err := godotenv.Load(candidate); err != nil {
		return "", fmt.Errorf("load env file %q: %w", candidate, err)
	}
	return candidate, nil
}

// ApplyEnvOverrides applies MOUSEWALL_* variables on top of the file values.
func (c *Config) ApplyEnvOverrides(lookup LookupEnvFunc) error {
	if lookup == nil {
		lookup = lookupEnv
	}
	get := func(name string) (string, bool) {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(value), true
	}

	if v, ok := get("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get("LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v, ok := get("HOTKEY"); ok {
		c.Hotkey.Toggle = v
	}

	bools := []struct {
		name   string
		target *bool
	}{
		{"START_ENABLED", &c.Wall.StartEnabled},
		{"WARP_ON_ENABLE", &c.Wall.WarpOnEnable},
		{"PROMPT_ON_START", &c.Permissions.PromptOnStart},
		{"OPEN_SETTINGS", &c.Permissions.OpenSettings},
	}
	for _, b := range bools {
		v, ok := get(b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
		*b.target = parsed
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"HISTORY_SIZE", &c.Wall.HistorySize},
		{"PERMISSION_POLL_SECONDS", &c.Permissions.PollIntervalSeconds},
		{"DISPLAY_POLL_SECONDS", &c.Display.PollIntervalSeconds},
	}
	for _, n := range ints {
		v, ok := get(n.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid integer value %q", EnvPrefix, n.name, v)
		}
		*n.target = parsed
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", value)
	}
}
