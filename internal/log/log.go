// Package log provides structured, colored logging for the node client.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Client  zerolog.Logger
	Scanner zerolog.Logger
	Storage zerolog.Logger
	Account zerolog.Logger
	CLI     zerolog.Logger
)

func init() {
	// CLI output owns stdout, so logs default to stderr.
	Logger = NewConsoleLogger(os.Stderr, "warn")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and the file (always JSON).
func Init(level string, jsonOutput bool, file string) error {
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		var console io.Writer = os.Stderr
		if !jsonOutput {
			console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		}
		Logger = zerolog.New(zerolog.MultiLevelWriter(console, f)).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Logger()
	case jsonOutput:
		Logger = NewJSONLogger(os.Stderr, level)
	default:
		Logger = NewConsoleLogger(os.Stderr, level)
	}

	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel maps a config level name to a zerolog level. "off" is an alias
// for "disabled"; unknown names fall back to info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "off" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func initComponentLoggers() {
	Client = WithComponent("client")
	Scanner = WithComponent("scanner")
	Storage = WithComponent("storage")
	Account = WithComponent("account")
	CLI = WithComponent("cli")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithNetwork returns a logger tagged with the node network name.
func WithNetwork(network string) zerolog.Logger {
	return Logger.With().Str("network", network).Logger()
}

// Benchmark returns a func that logs the elapsed time of name at debug level.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
