// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmynk/budgetshare/internal/calculator"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds every server setting.
type Config struct {
	// HTTP server
	Port               int      `env:"PORT"                 envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Storage
	DataBackend string `env:"DATA_BACKEND" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH"      envDefault:"./data/budgetshare.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Auth
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	// Domain events; publishing is disabled when AMQPURL is empty.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"budgetshare.events"`

	// Ledger
	BalanceCacheEnabled  bool   `env:"BALANCE_CACHE_ENABLED"  envDefault:"true"`
	BalanceCacheMaxCost  int64  `env:"BALANCE_CACHE_MAX_COST" envDefault:"100000"`
	SettlementMatchOrder string `env:"SETTLEMENT_MATCH_ORDER" envDefault:"magnitude"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file, parses the environment and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MatchOrder returns the configured transfer matching order.
func (c *Config) MatchOrder() calculator.MatchOrder {
	order, _ := calculator.ParseMatchOrder(c.SettlementMatchOrder)
	return order
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			problems = append(problems, "DB_PATH cannot be empty when using the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when using the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]",
			c.DataBackend, BackendSQLite, BackendPostgres))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenDuration <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token duration %s: must be positive", c.TokenDuration))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BalanceCacheEnabled && c.BalanceCacheMaxCost <= 0 {
		problems = append(problems, fmt.Sprintf("invalid balance cache max cost %d: must be positive", c.BalanceCacheMaxCost))
	}

	if _, err := calculator.ParseMatchOrder(c.SettlementMatchOrder); err != nil {
		problems = append(problems, err.Error())
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
