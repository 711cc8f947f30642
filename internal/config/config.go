// Package config loads agectl settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/flancast90/agegraph-go"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig

	// Graph is the default graph for seeding and queries.
	Graph string `env:"AGE_GRAPH" envDefault:"memory_graph"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host                string        `env:"POSTGRES_HOST" envDefault:"127.0.0.1"`
	Port                int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User                string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password            string        `env:"POSTGRES_PASSWORD" envDefault:"password"`
	Database            string        `env:"POSTGRES_DB" envDefault:"age_db"`
	SSLMode             string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxConns            int           `env:"DB_MAX_CONNS" envDefault:"20"`
	IdleTimeout         time.Duration `env:"DB_IDLE_TIMEOUT" envDefault:"30s"`
	ConnectTimeout      time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"2s"`
	HealthCheckInterval time.Duration `env:"DB_HEALTH_CHECK_INTERVAL" envDefault:"10s"`
	QueryDebug          bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
	SessionPreloaded    bool          `env:"AGE_SESSION_PRELOADED" envDefault:"false"`
}

// Load reads the given dotenv files, then parses the environment.
// Missing files are skipped. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("POSTGRES_PORT out of range: %d", c.Database.Port)
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive: %d", c.Database.MaxConns)
	}
	if c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive: %s", c.Database.ConnectTimeout)
	}
	return nil
}

// Options maps the configuration to client options.
func (c *Config) Options(log *zap.Logger) *agegraph.Options {
	d := c.Database
	return &agegraph.Options{
		Host:                d.Host,
		Port:                d.Port,
		Database:            d.Database,
		User:                d.User,
		Password:            d.Password,
		SSLMode:             d.SSLMode,
		MaxConns:            d.MaxConns,
		IdleTimeout:         d.IdleTimeout,
		ConnectTimeout:      d.ConnectTimeout,
		HealthCheckInterval: d.HealthCheckInterval,
		SessionPreloaded:    d.SessionPreloaded,
		QueryDebug:          d.QueryDebug,
		Logger:              log,
	}
}
