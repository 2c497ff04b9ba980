// Package logging builds the process-wide zerolog.Logger, matching the
// teacher's constructor-injected logger pattern (internal/modules/planning/
// repository/planner_repository.go: log.With().Str("component", ...).Logger()).
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config configures the root logger.
type Config struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error".
	// Defaults to "info" when empty or unrecognized.
	Level string
	// Pretty switches to zerolog's human-readable console writer, for
	// local/interactive runs; structured JSON otherwise.
	Pretty bool
}

// New builds the root logger from cfg.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
