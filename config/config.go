// Package config loads Caelum's settings from defaults, an optional YAML
// file, a .env file and CAELUM_ environment variables, in increasing order
// of precedence. Flags bound to the viper instance override all of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CAELUM"

// Config holds all configuration options.
type Config struct {
	Threshold float64       `mapstructure:"threshold"`
	SafeMode  bool          `mapstructure:"safe_mode"`
	DataDir   string        `mapstructure:"data_dir"`
	Macros    string        `mapstructure:"macros"` // path to a macro manifest, optional
	History   HistoryConfig `mapstructure:"history"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Server    ServerConfig  `mapstructure:"server"`
	Log       LogConfig     `mapstructure:"log"`
}

// HistoryConfig controls the SQLite command log.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// CacheConfig controls resolver memoisation.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ServerConfig controls the HTTP transport.
type ServerConfig struct {
	Addr  string  `mapstructure:"addr"`
	Rate  float64 `mapstructure:"rate"`  // commands per second per client
	Burst int     `mapstructure:"burst"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Threshold: 0.6,
		DataDir:   ".",
		History: HistoryConfig{
			Enabled: true,
			File:    "history.db",
		},
		Cache:  CacheConfig{TTL: 10 * time.Minute},
		Server: ServerConfig{Addr: ":9090", Rate: 5, Burst: 10},
		Log:    LogConfig{Level: "info"},
	}
}

type options struct {
	viper   *viper.Viper
	envFile string
}

// Option configures Load.
type Option func(*options)

// WithViper loads into v, typically one with flags already bound.
func WithViper(v *viper.Viper) Option {
	return func(o *options) { o.viper = v }
}

// WithEnvFile reads environment variables from name instead of ".env".
func WithEnvFile(name string) Option {
	return func(o *options) { o.envFile = name }
}

// New returns a viper instance carrying the defaults and environment
// binding, ready for flags to be bound to it.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("safe_mode", d.SafeMode)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("macros", d.Macros)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.file", d.History.File)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate", d.Server.Rate)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An explicit path must exist; without one
// ./caelum.yaml and ~/.config/caelum/config.yaml are tried in turn.
func Load(path string, opts ...Option) (Config, error) {
	o := &options{envFile: ".env"}
	for _, opt := range opts {
		opt(o)
	}
	if o.viper == nil {
		o.viper = New()
	}
	v := o.viper

	if err := godotenv.Load(o.envFile); err != nil {
		log.Debug().Str("file", o.envFile).Msg("no env file found, using system environment")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if found := lookup(); found != "" {
		v.SetConfigFile(found)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", found, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookup() string {
	candidates := []string{"caelum.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "caelum", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Validate reports every setting that is out of range.
func (c Config) Validate() error {
	var errs []error
	if c.Threshold <= 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL))
	}
	if c.Server.Rate <= 0 {
		errs = append(errs, fmt.Errorf("server.rate must be positive, got %v", c.Server.Rate))
	}
	if c.Server.Burst < 1 {
		errs = append(errs, fmt.Errorf("server.burst must be at least 1, got %d", c.Server.Burst))
	}
	if c.History.Enabled && c.History.File == "" {
		errs = append(errs, errors.New("history.file is required when history is enabled"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level, info if it cannot be parsed.
func (c Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
