package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"fakeshades/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config string to a zerolog level.
// Unknown values fall back to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Init points the global logger at w
func Init(w io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    w != os.Stderr && w != os.Stdout,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// InitFile logs to the file named in conf, since the terminal UI owns
// stdout. An empty file name disables logging.
func InitFile(conf config.LogConfig, app string) (io.Closer, error) {
	if conf.File == "" {
		Init(io.Discard, app, zerolog.Disabled)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(conf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	Init(f, app, ParseLevel(conf.Level))
	return f, nil
}
