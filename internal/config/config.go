// Package config provides Viper-based configuration shared by tracker and clipperd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pysugar/careertracker/internal/credential"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRACKER_API_BASE.
const EnvPrefix = "TRACKER"

// Config is the complete configuration.
type Config struct {
	APIBase    string       `mapstructure:"api_base"`
	StateFile  string       `mapstructure:"state_file"`
	DBPath     string       `mapstructure:"db_path"`
	ListenAddr string       `mapstructure:"listen_addr"`
	Log        LogConfig    `mapstructure:"log"`
	HTTP       HTTPConfig   `mapstructure:"http"`
	Bridge     BridgeConfig `mapstructure:"bridge"`
	Output     OutputConfig `mapstructure:"output"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// BridgeConfig limits the extension endpoint. RateLimit is messages per second.
type BridgeConfig struct {
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads .env, the config file and TRACKER_* variables, in increasing
// precedence. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".tracker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tracker")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.APIBase = credential.NormalizeAPIBase(cfg.APIBase)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", credential.DefaultAPIBase)
	v.SetDefault("state_file", defaultStateFile())
	v.SetDefault("db_path", "clipperd.db")
	v.SetDefault("listen_addr", "127.0.0.1:8765")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("bridge.rate_limit", 5.0)
	v.SetDefault("bridge.burst", 20)
	v.SetDefault("output.colors", true)
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tracker-state.yaml"
	}
	return filepath.Join(dir, "tracker", "state.yaml")
}

func validate(cfg *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", cfg.HTTP.Timeout)
	}
	if cfg.Bridge.RateLimit < 0 || cfg.Bridge.Burst < 0 {
		return errors.New("bridge.rate_limit and bridge.burst must not be negative")
	}
	if cfg.StateFile == "" {
		return errors.New("state_file must be set")
	}
	return nil
}
