// Package config loads the service configuration.
//
// Config file locations (priority order):
//  1. the --config flag
//  2. $GQLSTORE_CONFIG
//  3. ./gqlstore.yaml
//
// With no file, defaults apply. $PORT, when set, overrides the port of the
// listen address.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Defaults.
const (
	DefaultDataDir    = "./data"
	DefaultSQLitePath = "./data/gqlstore.db"
	DefaultListen     = ":4000"
	DefaultLogLevel   = "info"
	DefaultFileName   = "gqlstore.yaml"
)

// EnvConfig names the environment variable holding a config path.
const EnvConfig = "GQLSTORE_CONFIG"

// EnvPort overrides the listen port.
const EnvPort = "PORT"

// Config is the service configuration.
type Config struct {
	// DataDir holds one <collection>.json file per collection. With the
	// sqlite backend it seeds collections the database has never stored.
	DataDir string `yaml:"dataDir"`

	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlitePath"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// FindPath returns the config file to load, or "" when there is none.
// An explicit path always wins, even if the file does not exist.
func FindPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

// Load finds and loads the config file, or returns defaults if none is
// found. The environment overrides are applied either way.
func Load(explicit string) (*Config, string, error) {
	path := FindPath(explicit)
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", cfg.Validate()
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	if c.SQLitePath == "" {
		c.SQLitePath = DefaultSQLitePath
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) applyEnv() {
	port := os.Getenv(EnvPort)
	if port == "" {
		return
	}
	host, _, err := net.SplitHostPort(c.Listen)
	if err != nil {
		host = ""
	}
	c.Listen = net.JoinHostPort(host, port)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("backend %q: must be %q or %q", c.Backend, BackendJSON, BackendSQLite))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen %q: %w", c.Listen, err))
	}
	return errors.Join(errs...)
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: must be debug, info, warn or error", s)
	}
	return lvl, nil
}
