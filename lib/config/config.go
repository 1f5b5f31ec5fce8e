// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable [Load] reads the config
// path from.
const EnvConfig = "OBSMENU_CONFIG"

// Config is the complete obsmenud configuration.
type Config struct {
	// OBS configures the obs-websocket connection.
	OBS OBSConfig `yaml:"obs" json:"obs"`

	// Control configures the control socket.
	Control ControlConfig `yaml:"control" json:"control"`

	// Notifications configures issue throttling and retention.
	Notifications NotificationsConfig `yaml:"notifications" json:"notifications"`

	// Log configures daemon logging.
	Log LogConfig `yaml:"log" json:"log"`
}

// OBSConfig configures the obs-websocket client.
type OBSConfig struct {
	// URL is the obs-websocket endpoint.
	// Default: ws://localhost:4455/
	URL string `yaml:"url" json:"url"`

	// Password authenticates against OBS when it asks for it. Usually
	// given as ${OBS_PASSWORD} so the file holds no secret.
	Password string `yaml:"password" json:"password"`

	ConnectTimeout     Duration `yaml:"connect_timeout" json:"connect_timeout"`
	RetryInterval      Duration `yaml:"retry_interval" json:"retry_interval"`
	ReadTimeout        Duration `yaml:"read_timeout" json:"read_timeout"`
	HandshakeTimeout   Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	StatusPollInterval Duration `yaml:"status_poll_interval" json:"status_poll_interval"`

	// EventSubscriptions is the obs-websocket subscription bitmask.
	// Zero selects the client default.
	EventSubscriptions uint32 `yaml:"event_subscriptions" json:"event_subscriptions"`
}

// ControlConfig configures the control socket.
type ControlConfig struct {
	// SocketPath is where obsmenud listens and obsmenu connects.
	// Default: $XDG_RUNTIME_DIR/obsmenu.sock, else in the temp dir.
	SocketPath string `yaml:"socket_path" json:"socket_path"`
}

// NotificationsConfig configures user notifications.
type NotificationsConfig struct {
	// ThrottleInterval is the minimum spacing of issue announcements.
	// Default: 10s
	ThrottleInterval Duration `yaml:"throttle_interval" json:"throttle_interval"`

	// PerClass throttles each issue class separately instead of
	// sharing one clock.
	PerClass bool `yaml:"per_class" json:"per_class"`

	// Retain is how many notifications the daemon keeps per service
	// for the control socket.
	// Default: 64
	Retain int `yaml:"retain" json:"retain"`
}

// Log formats.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig configures daemon logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text or
	// json.
	// Default: auto
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given, and
// the base a loaded file is merged into.
func Default() *Config {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}

	return &Config{
		OBS: OBSConfig{
			URL:                "ws://localhost:4455/",
			ConnectTimeout:     Duration(2 * time.Second),
			RetryInterval:      Duration(3 * time.Second),
			ReadTimeout:        Duration(500 * time.Millisecond),
			HandshakeTimeout:   Duration(5 * time.Second),
			StatusPollInterval: Duration(5 * time.Second),
		},
		Control: ControlConfig{
			SocketPath: filepath.Join(runtimeDir, "obsmenu.sock"),
		},
		Notifications: NotificationsConfig{
			ThrottleInterval: Duration(10 * time.Second),
			Retain:           64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatAuto,
		},
	}
}

// Load loads configuration from the file named by OBSMENU_CONFIG.
// There is no discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your obsmenu config file, or use --config", EnvConfig)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over [Default]. The format
// follows the extension: .yaml or .yml, or .json or .jsonc (JSON with
// comments and trailing commas). ${VAR} and ${VAR:-default} are
// expanded in the URL, password and socket path after loading.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges one file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config file %s: unsupported extension %q (want .yaml, .yml, .json or .jsonc)", path, ext)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// fields that commonly vary per machine.
func (c *Config) expandVariables() {
	c.OBS.URL = expandVars(c.OBS.URL)
	c.OBS.Password = expandVars(c.OBS.Password)
	c.Control.SocketPath = expandVars(c.Control.SocketPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces each ${VAR} with the environment value, or the
// pattern's default when the variable is unset or empty.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors, reporting all of
// them.
func (c *Config) Validate() error {
	var errs []error

	if c.OBS.URL == "" {
		errs = append(errs, fmt.Errorf("obs.url is required"))
	} else if parsed, err := url.Parse(c.OBS.URL); err != nil {
		errs = append(errs, fmt.Errorf("obs.url: %w", err))
	} else if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		errs = append(errs, fmt.Errorf("obs.url must use ws:// or wss://, got %q", c.OBS.URL))
	}

	durations := []struct {
		name  string
		value Duration
	}{
		{"obs.connect_timeout", c.OBS.ConnectTimeout},
		{"obs.retry_interval", c.OBS.RetryInterval},
		{"obs.read_timeout", c.OBS.ReadTimeout},
		{"obs.handshake_timeout", c.OBS.HandshakeTimeout},
		{"obs.status_poll_interval", c.OBS.StatusPollInterval},
		{"notifications.throttle_interval", c.Notifications.ThrottleInterval},
	}
	for _, duration := range durations {
		if duration.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", duration.name, duration.value))
		}
	}

	if c.Control.SocketPath == "" {
		errs = append(errs, fmt.Errorf("control.socket_path is required"))
	}

	if c.Notifications.Retain <= 0 {
		errs = append(errs, fmt.Errorf("notifications.retain must be positive, got %d", c.Notifications.Retain))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	formats := []string{FormatAuto, FormatText, FormatJSON}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
