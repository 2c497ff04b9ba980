// Package config loads the engine's ambient settings (PRNG seed, log level)
// from the environment, following the teacher's internal/config.Load()
// pattern: typed env-var reads with documented defaults, .env support via
// godotenv. Domain configuration (weights, strategies, thresholds) is a
// separate concern — see domain.AllocationConfig — and is never read from
// the environment (spec.md §6: "no environment variables... belong to the
// core").
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the ambient settings for the allocate-demo CLI.
type Config struct {
	// Seed reproduces the engine-scoped PRNG. Nil means time-seeded.
	Seed *int64
	// LogLevel is a zerolog level name, e.g. "info", "debug".
	LogLevel string
	// LogPretty switches to zerolog's console writer for interactive runs.
	LogPretty bool
}

// Load reads ALLOC_SEED, ALLOC_LOG_LEVEL and ALLOC_LOG_PRETTY from the
// environment, loading a .env file first if one is present in the working
// directory (a missing .env is not an error).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:  getEnv("ALLOC_LOG_LEVEL", "info"),
		LogPretty: getEnvBool("ALLOC_LOG_PRETTY", false),
	}

	if raw := os.Getenv("ALLOC_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			cfg.Seed = &seed
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
