package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Service string // attached as a service field when set
}

// New creates a zerolog logger for the audit pipeline. JSON output is
// the default; console is for local runs.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Caller()

	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}

	return ctx.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
