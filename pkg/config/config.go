// Package config loads process configuration from the environment, after
// reading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Tables names the DynamoDB tables.
type Tables struct {
	Users        string `env:"DYNAMODB_USERS_TABLE_NAME" envDefault:"xplus-users"`
	Campaigns    string `env:"DYNAMODB_CAMPAIGNS_TABLE_NAME" envDefault:"xplus-campaigns"`
	Engagements  string `env:"DYNAMODB_ENGAGEMENTS_TABLE_NAME" envDefault:"xplus-engagements"`
	Transactions string `env:"DYNAMODB_TRANSACTIONS_TABLE_NAME" envDefault:"xplus-transactions"`
	Ledger       string `env:"DYNAMODB_LEDGER_TABLE_NAME" envDefault:"xplus-ledger"`
	Connections  string `env:"DYNAMODB_CONNECTIONS_TABLE_NAME" envDefault:"xplus-connections"`
}

// Config is the configuration shared by every binary.
type Config struct {
	HTTPPort             string        `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver          string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN          string        `env:"DATABASE_DSN" envDefault:"file:xplus.db?_foreign_keys=on"`
	Tables               Tables
	SQSQueueURL          string        `env:"SQS_QUEUE_URL"`
	PaystackSecretKey    string        `env:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL      string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	PublicBaseURL        string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	JWTSecret            string        `env:"JWT_SECRET"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	SubmissionRateLimit  int           `env:"SUBMISSION_RATE_LIMIT" envDefault:"10"`
	GeoIPBaseURL         string        `env:"GEOIP_BASE_URL" envDefault:"http://ip-api.com/json"`
	WebSocketAPIEndpoint string        `env:"WEBSOCKET_API_ENDPOINT"`
	GatewayTimeout       time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
}

// Load reads .env if present and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot run without.
func (c *Config) ValidateServer() error {
	var errs []error
	switch c.StoreDriver {
	case DriverDynamoDB, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.PaystackSecretKey == "" {
		errs = append(errs, errors.New("PAYSTACK_SECRET_KEY is required"))
	}
	if c.SubmissionRateLimit < 0 {
		errs = append(errs, errors.New("SUBMISSION_RATE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
