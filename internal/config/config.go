// Package config loads the soup client configuration and local player identity.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/soup/internal/core/presence"
	"github.com/example/soup/internal/oracle"
)

// Store drivers
const (
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// DefaultHeartbeatInterval is how often an interactive client pulses its liveness.
const DefaultHeartbeatInterval = 30 * time.Second

// Config represents the soup client configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Oracle OracleConfig `yaml:"oracle"`
	Game   GameConfig   `yaml:"game"`
}

// StoreConfig selects the shared-state substrate.
type StoreConfig struct {
	Driver string `yaml:"driver"` // badger or memory
	Path   string `yaml:"path"`
}

// LogConfig configures the operator log and the local system log database.
type LogConfig struct {
	Path   string `yaml:"path"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// OracleConfig configures the OpenAI-compatible oracle endpoint.
// With no API key the offline oracle is used.
type OracleConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Fanout  int           `yaml:"fanout"`
	Timeout time.Duration `yaml:"timeout"`
}

// GameConfig holds the session rules that may vary per deployment.
type GameConfig struct {
	AdminID           string        `yaml:"admin_id"`
	Passcode          string        `yaml:"passcode"`
	Persona           string        `yaml:"persona"`
	PresenceWindow    time.Duration `yaml:"presence_window"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// Dir returns the soup home directory: $SOUP_HOME, or ~/.soup.
func Dir() (string, error) {
	if dir := os.Getenv("SOUP_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".soup"), nil
}

// Default returns the configuration used when nothing is overridden.
func Default(dir string) *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverBadger,
			Path:   filepath.Join(dir, "state"),
		},
		Log: LogConfig{
			Path:   filepath.Join(dir, "system.db"),
			Level:  "warn",
			Format: "text",
		},
		Oracle: OracleConfig{
			Model:   "gpt-4o-mini",
			Fanout:  oracle.DefaultFanout,
			Timeout: oracle.DefaultAttemptTimeout,
		},
		Game: GameConfig{
			Persona:           oracle.DefaultPersona,
			PresenceWindow:    presence.DefaultWindow,
			HeartbeatInterval: DefaultHeartbeatInterval,
		},
	}
}

// Load builds the configuration for dir.
// Resolution order: defaults, then dir/config.yaml (optional), then .env in the
// working directory, then SOUP_* environment variables.
func Load(dir string) (*Config, error) {
	cfg := Default(dir)

	if err := cfg.loadFile(filepath.Join(dir, "config.yaml")); err != nil {
		return nil, err
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// applyEnv overrides fields from SOUP_* variables read through getenv.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SOUP_STORE":        &c.Store.Driver,
		"SOUP_STORE_PATH":   &c.Store.Path,
		"SOUP_LOG_DB":       &c.Log.Path,
		"SOUP_LOG_LEVEL":    &c.Log.Level,
		"SOUP_LOG_FORMAT":   &c.Log.Format,
		"SOUP_ORACLE_URL":   &c.Oracle.BaseURL,
		"SOUP_ORACLE_KEY":   &c.Oracle.APIKey,
		"SOUP_ORACLE_MODEL": &c.Oracle.Model,
		"SOUP_ADMIN_ID":     &c.Game.AdminID,
		"SOUP_PASSCODE":     &c.Game.Passcode,
		"SOUP_PERSONA":      &c.Game.Persona,
	}
	for key, field := range strs {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*field = v
		}
	}

	if v := getenv("SOUP_ORACLE_FANOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SOUP_ORACLE_FANOUT %q: %w", v, err)
		}
		c.Oracle.Fanout = n
	}
	durations := map[string]*time.Duration{
		"SOUP_ORACLE_TIMEOUT":     &c.Oracle.Timeout,
		"SOUP_PRESENCE_WINDOW":    &c.Game.PresenceWindow,
		"SOUP_HEARTBEAT_INTERVAL": &c.Game.HeartbeatInterval,
	}
	for key, field := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = d
	}
	return nil
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverBadger, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q (want %s or %s)", c.Store.Driver, DriverBadger, DriverMemory)
	}
	if c.Store.Driver == DriverBadger && c.Store.Path == "" {
		return errors.New("store.path is required for the badger driver")
	}
	if c.Oracle.Fanout < 1 {
		return fmt.Errorf("oracle.fanout must be at least 1, got %d", c.Oracle.Fanout)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.Oracle.Timeout)
	}
	if !oracle.IsPersona(c.Game.Persona) {
		return fmt.Errorf("unknown persona %q (want one of %s)", c.Game.Persona, strings.Join(oracle.Personas(), ", "))
	}
	if c.Game.PresenceWindow <= 0 {
		return fmt.Errorf("game.presence_window must be positive, got %s", c.Game.PresenceWindow)
	}
	if c.Game.HeartbeatInterval <= 0 || c.Game.HeartbeatInterval >= c.Game.PresenceWindow {
		return fmt.Errorf("game.heartbeat_interval must be positive and shorter than the presence window, got %s", c.Game.HeartbeatInterval)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// OfflineOracle reports whether no oracle endpoint is configured.
func (c *Config) OfflineOracle() bool {
	return c.Oracle.APIKey == ""
}

// Save writes the configuration to dir/config.yaml.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
