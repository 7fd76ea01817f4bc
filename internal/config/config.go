// Package config loads and saves envbudget's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all envbudget configuration.
type Config struct {
	Client     ClientConfig     `toml:"client"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// ClientConfig holds settings for commands that talk to the backend.
type ClientConfig struct {
	BaseURL  string `toml:"base_url"`
	BudgetID int64  `toml:"budget_id,omitempty"` // 0 = first budget
}

// ServerConfig holds settings for `envbudget serve`.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	DBPath string `toml:"db_path,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "envbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "envbudget")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the directory holding the server database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "envbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "envbudget")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-owned path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// APIURL returns the backend base URL from env var or config, in that order.
func APIURL(cfg Config) string {
	if u := os.Getenv("ENVBUDGET_API_URL"); u != "" {
		return u
	}
	return cfg.Client.BaseURL
}

// DBPath returns the server database path from env var, config, or the
// default data directory, in that order.
func DBPath(cfg Config) string {
	if p := os.Getenv("ENVBUDGET_DB"); p != "" {
		return p
	}
	if cfg.Server.DBPath != "" {
		return cfg.Server.DBPath
	}
	return filepath.Join(DataDir(), "envbudget.db")
}

// Validate performs basic validation on the configuration.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server.addr %q: %w", c.Server.Addr, err)
	}
	if c.Client.BaseURL != "" {
		u, err := url.Parse(c.Client.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid client.base_url %q", c.Client.BaseURL)
		}
	}
	if c.Client.BudgetID < 0 {
		return fmt.Errorf("invalid client.budget_id %d", c.Client.BudgetID)
	}
	return nil
}
