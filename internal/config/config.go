// Package config loads tatl's configuration from XDG paths and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for tatl.
type Config struct {
	Data  DataConfig  `mapstructure:"data" yaml:"data"`
	Clock ClockConfig `mapstructure:"clock" yaml:"clock"`
	Board BoardConfig `mapstructure:"board" yaml:"board"`
}

// DataConfig says where the ledger lives.
type DataConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`
}

// ClockConfig holds session timing settings.
type ClockConfig struct {
	// MicroThreshold is the shortest session recorded on its own.
	// Sessions closed sooner merge into an adjacent session or are
	// dropped.
	MicroThreshold time.Duration `mapstructure:"micro_threshold" yaml:"micro_threshold"`
}

// BoardConfig holds board display settings.
type BoardConfig struct {
	// Refresh is how often the board re-reads the ledger between
	// file-change notifications.
	Refresh time.Duration `mapstructure:"refresh" yaml:"refresh"`
}

// Load reads configuration with this precedence, highest first:
// environment variables (TATL_*), the user config file
// (~/.config/tatl/config.yaml), built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	v.SetEnvPrefix("TATL")
	v.AutomaticEnv()
	v.BindEnv("data.path", "TATL_DATA_PATH")
	v.BindEnv("clock.micro_threshold", "TATL_MICRO_THRESHOLD")
	v.BindEnv("board.refresh", "TATL_BOARD_REFRESH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Data.Path = os.ExpandEnv(cfg.Data.Path)
	return cfg, nil
}

// LoadFromPath reads configuration from one file, for testing and the
// --config flag.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Data.Path = os.ExpandEnv(cfg.Data.Path)
	return cfg, nil
}

// Scaffold writes the default configuration to the user config file.
// An existing file is left alone.
func Scaffold() (string, error) {
	dir := userConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	raw, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling defaults: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// UserConfigPath returns the path of the user config file, which may
// not exist yet.
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data:  DataConfig{Path: defaultDataPath()},
		Clock: ClockConfig{MicroThreshold: time.Minute},
		Board: BoardConfig{Refresh: 2 * time.Second},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.path", defaultDataPath())
	v.SetDefault("clock.micro_threshold", "60s")
	v.SetDefault("board.refresh", "2s")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tatl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tatl")
	}
	return filepath.Join(home, ".config", "tatl")
}

func defaultDataPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tatl", "tatl.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "tatl", "tatl.db")
	}
	return filepath.Join(home, ".local", "share", "tatl", "tatl.db")
}
