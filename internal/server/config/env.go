package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/teamkeeper/internal/flagx"
)

const envPrefix = "TEAMKEEPER_"

// parseEnv overlays TEAMKEEPER_* variables onto config. The dotenv file
// (-env, default ".env") is loaded first if it exists; it never overrides
// variables already present in the environment.
func parseEnv(config *Config, args []string) error {
	if err := godotenv.Load(flagx.EnvFile(args)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.ParseWithOptions(config, env.Options{Prefix: envPrefix})
}
