// Package config loads server configuration from the environment, an
// optional config.yaml and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/roster-engine/reconcile"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	DBPath      string `mapstructure:"DB_PATH"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// CORS configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// Reconciliation
	ReconcileTolerance time.Duration `mapstructure:"RECONCILE_TOLERANCE"`
	ReconcileMatching  string        `mapstructure:"RECONCILE_MATCHING"`
	DefaultCycleLength int           `mapstructure:"DEFAULT_CYCLE_LENGTH"`

	// Nightly scheduler
	SchedulerEnabled  bool          `mapstructure:"SCHEDULER_ENABLED"`
	SchedulerInterval time.Duration `mapstructure:"SCHEDULER_INTERVAL"`
}

// Load reads configuration from environment variables and config files.
// Config files are searched in paths (default "." and "./config").
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "roster.db")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("RECONCILE_TOLERANCE", "0s")
	v.SetDefault("RECONCILE_MATCHING", reconcile.MatchingGreedy)
	v.SetDefault("DEFAULT_CYCLE_LENGTH", 4)

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_INTERVAL", "1h")
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.ReconcileTolerance < 0 {
		return fmt.Errorf("RECONCILE_TOLERANCE must not be negative, got %s", c.ReconcileTolerance)
	}
	if _, err := reconcile.NewMatcher(c.ReconcileMatching); err != nil {
		return fmt.Errorf("RECONCILE_MATCHING: %w", err)
	}
	if c.DefaultCycleLength < 1 {
		return fmt.Errorf("DEFAULT_CYCLE_LENGTH must be at least 1, got %d", c.DefaultCycleLength)
	}
	if c.SchedulerEnabled && c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.SchedulerInterval)
	}
	return nil
}

// ReconcileOptions builds the engine options from the configuration.
func (c *Config) ReconcileOptions() (reconcile.Options, error) {
	m, err := reconcile.NewMatcher(c.ReconcileMatching)
	if err != nil {
		return reconcile.Options{}, err
	}
	return reconcile.Options{Tolerance: c.ReconcileTolerance, Matcher: m}, nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
