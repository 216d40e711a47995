// Package log provides structured logging for crdtstore, built on
// zerolog. Grounded verbatim on cuemby-warren/pkg/log/log.go's shape
// (global Logger, Init(Config), With* component helpers), repurposed for
// this library's component set (store, integrate, txn, update) in place
// of warren's (node_id, service_id, task_id).
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance. Component packages derive a child
// logger from it via WithComponent rather than logging through the
// package-level helpers directly, so every line carries a "component"
// field.
var Logger zerolog.Logger

// Level represents a logging verbosity.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration, loaded from pkg/config.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. Safe to call more than once (e.g.
// once with defaults at package init, again after pkg/config loads a
// file) — each call fully replaces Logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func init() {
	Init(Config{Level: InfoLevel})
}

// WithComponent returns a child logger tagging every line with
// component, e.g. "store", "integrate", "txn", "update".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithDocID returns a child logger tagging every line with the document
// it concerns.
func WithDocID(docID string) zerolog.Logger {
	return Logger.With().Str("doc_id", docID).Logger()
}

// Info, Debug, Warn, Error, Errorf, Fatal are plain-string convenience
// wrappers for call sites that don't need extra structured fields.
func Info(msg string)  { Logger.Info().Msg(msg) }
func Debug(msg string) { Logger.Debug().Msg(msg) }
func Warn(msg string)  { Logger.Warn().Msg(msg) }
func Error(msg string) { Logger.Error().Msg(msg) }

func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(format)
}

func Fatal(msg string) { Logger.Fatal().Msg(msg) }
