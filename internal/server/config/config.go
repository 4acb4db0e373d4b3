// Package config handles configuration for the server component.
//
// Values are layered in this order, each source overriding the previous one:
// built-in defaults, an optional dotenv file, TEAMKEEPER_* environment
// variables, an optional JSON file (-c/-config) and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the teamkeeper server.
//
// An empty DatabaseDSN selects the in-memory store. An empty RedisAddr
// keeps per-team roster locks in process.
type Config struct {
	EndpointAddrHTTP            string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC            string        `env:"GRPC_ADDR"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	SecretKey                   string        `env:"SECRET_KEY"`
	TokenIssuer                 string        `env:"TOKEN_ISSUER"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	RedisAddr                   string        `env:"REDIS_ADDR"`
	RedisPassword               string        `env:"REDIS_PASSWORD"`
	AllowedOrigins              []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel                    string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of local development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.TokenIssuer = "teamkeeper"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.AllowedOrigins = []string{"http://localhost:3000"}
	c.LogLevel = "info"
}

// LoadConfig builds a Config from the process environment and os.Args.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
