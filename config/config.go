// Package config provides configuration management for the expense tracker.
// Values are read from environment variables once at startup; required
// variables, defaults and range checks are validated together so that every
// problem is reported in a single error.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseConfig holds the connection settings for the Postgres pool.
type DatabaseConfig struct {
	URL        string `env:"DATABASE_URL"`
	MaxConns   int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	InitSchema bool   `env:"DB_INIT_SCHEMA" envDefault:"false"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret is removed from the process environment once read.
	JWTSecret     string `env:"JWT_SECRET,unset"`
	BcryptCost    int    `env:"BCRYPT_COST" envDefault:"10"`
	HashWorkers   int    `env:"HASH_WORKERS" envDefault:"4"`
	HashQueueSize int    `env:"HASH_QUEUE_SIZE" envDefault:"64"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"4001"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Server   ServerConfig
}

// String hides the signing secret and database credentials so the config
// can be logged safely.
func (c *AppConfig) String() string {
	return fmt.Sprintf("port=%s db_max_conns=%d bcrypt_cost=%d hash_workers=%d cors=%v",
		c.Server.Port, c.Database.MaxConns, c.Auth.BcryptCost, c.Auth.HashWorkers, c.Server.AllowedOrigins)
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig
	var problems []string

	if err := env.Parse(&cfg); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				problems = append(problems, e.Error())
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	problems = append(problems, cfg.validate()...)

	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return &cfg, nil
}

func (c *AppConfig) validate() []string {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "missing required environment variable: DATABASE_URL")
	}
	if c.Database.MaxConns < 1 {
		problems = append(problems, fmt.Sprintf("DB_MAX_CONNS must be at least 1, got %d", c.Database.MaxConns))
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "missing required environment variable: JWT_SECRET")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	if c.Auth.HashWorkers < 1 {
		problems = append(problems, fmt.Sprintf("HASH_WORKERS must be at least 1, got %d", c.Auth.HashWorkers))
	}
	if c.Auth.HashQueueSize < 0 {
		problems = append(problems, fmt.Sprintf("HASH_QUEUE_SIZE must not be negative, got %d", c.Auth.HashQueueSize))
	}
	if c.Server.Port == "" {
		problems = append(problems, "PORT must not be empty")
	}
	return problems
}
