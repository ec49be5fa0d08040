// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/veridian-labs/veridian/internal/common"
)

// Thresholds are the externally supplied policy constants. The core surfaces
// confidence scores; where a band boundary sits is configuration, not code.
type Thresholds struct {
	Merge float64 `mapstructure:"merge"`
	Match float64 `mapstructure:"match"`
	Floor float64 `mapstructure:"floor"`
}

// Weights control field contributions to resolution similarity.
type Weights struct {
	Name        float64 `mapstructure:"name"`
	DateOfBirth float64 `mapstructure:"date_of_birth"`
	Nationality float64 `mapstructure:"nationality"`
	Document    float64 `mapstructure:"document"`
}

// Config is the full application configuration.
type Config struct {
	DatabasePath    string     `mapstructure:"database_path"`
	WatchlistPath   string     `mapstructure:"watchlist_path"`
	WatchlistURL    string     `mapstructure:"watchlist_url"`
	DigestAlgorithm string     `mapstructure:"digest_algorithm"`
	MetricsAddr     string     `mapstructure:"metrics_addr"`
	Thresholds      Thresholds `mapstructure:"thresholds"`
	Weights         Weights    `mapstructure:"weights"`
}

// SetDefaults registers the documented default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "~/.local/share/veridian/veridian.db")
	v.SetDefault("digest_algorithm", "sha256")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("thresholds.merge", 0.85)
	v.SetDefault("thresholds.match", 0.90)
	v.SetDefault("thresholds.floor", 0.65)
	v.SetDefault("weights.name", 0.50)
	v.SetDefault("weights.date_of_birth", 0.25)
	v.SetDefault("weights.nationality", 0.10)
	v.SetDefault("weights.document", 0.15)
}

// Load reads the configuration out of a viper instance and validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	cfg.WatchlistPath = ExpandPath(cfg.WatchlistPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ExpandPath resolves a leading ~ to the user's home directory and expands
// $VAR environment references. Paths stored in config files stay portable
// across users this way.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// Validate checks threshold ordering and weight sanity.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.Floor < 0 || t.Match > 1 || t.Floor > t.Match {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= floor <= match <= 1", common.ErrInvalidConfig)
	}
	if t.Merge < 0 || t.Merge > 1 {
		return fmt.Errorf("%w: merge threshold must be in [0,1]", common.ErrInvalidConfig)
	}

	w := c.Weights
	if w.Name <= 0 {
		return fmt.Errorf("%w: name weight must be positive", common.ErrInvalidConfig)
	}
	for _, weight := range []float64{w.DateOfBirth, w.Nationality, w.Document} {
		if weight < 0 {
			return fmt.Errorf("%w: weights must be non-negative", common.ErrInvalidConfig)
		}
	}
	return nil
}
