// Package config loads runtime configuration for the teamkeeper CLI.
//
// Sources, each overriding the previous one: built-in defaults, an optional
// JSON file selected with -c or -config, and command-line flags.
//
// Supported flags
//
//	-a string   base URL of the HTTP API (e.g. "http://127.0.0.1:8080/api/v1")
//	-g string   host:port of the gRPC health endpoint
//	-d string   path of the local sqlite database
//	-i int      online status check interval (seconds)
//	-t int      HTTP request timeout (seconds)
//	-l string   log level
//
// The JSON file uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080/api/v1",
//	  "health_endpoint_addr": "127.0.0.1:50051",
//	  "db_path": "teamkeeper.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s"
//	}
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the teamkeeper CLI.
type Config struct {
	ServerBaseURL       string
	HealthEndpointAddr  string
	DBPath              string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/api/v1"
	c.HealthEndpointAddr = "127.0.0.1:50051"
	c.DBPath = "teamkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, the JSON file and os.Args.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
