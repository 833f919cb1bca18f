package config

import (
	"errors"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded into the process environment when present.
// Variables already set in the environment are not overwritten.
var dotEnvFile = ".env"

// parseEnv overlays NOTES_* environment variables. Unset variables leave
// the current values untouched.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return cleanenv.ReadEnv(config)
}
