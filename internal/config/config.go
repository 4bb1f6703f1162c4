package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment, so
// DATABASE_PATH is set with VENUEALLOC_DATABASE_PATH.
const EnvPrefix = "VENUEALLOC"

type Config struct {
	DatabasePath  string `mapstructure:"DATABASE_PATH"`
	ListenAddr    string `mapstructure:"LISTEN_ADDR"`
	BusyTimeoutMs int    `mapstructure:"BUSY_TIMEOUT_MS"`
	MaxOpenConns  int    `mapstructure:"MAX_OPEN_CONNS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogUseCases   bool   `mapstructure:"LOG_USE_CASES"`
}

// New returns a viper instance with defaults and environment bindings in
// place. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("DATABASE_PATH", DefaultDatabasePath())
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("BUSY_TIMEOUT_MS", 10000)
	v.SetDefault("MAX_OPEN_CONNS", 8)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_USE_CASES", false)

	v.SetEnvPrefix(EnvPrefix)
	v.BindEnv("DATABASE_PATH")
	v.BindEnv("LISTEN_ADDR")
	v.BindEnv("BUSY_TIMEOUT_MS")
	v.BindEnv("MAX_OPEN_CONNS")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("LOG_USE_CASES")

	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes v into a Config. An empty
// configFile looks for venuealloc.yaml in the working directory and the
// user config dir; a missing file there is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("venuealloc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "venuealloc"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.BusyTimeoutMs < 0 {
		return fmt.Errorf("BUSY_TIMEOUT_MS must be >= 0, got %d", c.BusyTimeoutMs)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("MAX_OPEN_CONNS must be >= 1, got %d", c.MaxOpenConns)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// DefaultDatabasePath returns ~/.venuealloc/venuealloc.db, falling back to the
// working directory when no home directory is available.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "venuealloc.db"
	}
	return filepath.Join(home, ".venuealloc", "venuealloc.db")
}
