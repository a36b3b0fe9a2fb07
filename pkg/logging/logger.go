// Package logging configures zerolog for the photo fetcher and names the
// fields every component logs with, so that one fetch can be followed from
// request construction to the feed through request_id.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// DefaultService is the service field attached by Setup when Config.Service is empty.
const DefaultService = "photo-fetcher"

// Field names shared by all photo fetcher log lines.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldPage       = "page"
	FieldLimit      = "limit"
	FieldKind       = "kind"
	FieldStatusCode = "status_code"
	FieldErrorClass = "error_class"
	FieldFixture    = "fixture"
	FieldSource     = "source"
)

// LogLevel is a configured log level name.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel
	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool
	Output io.Writer
	// Service is attached to every line.
	Service string
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Output:  os.Stderr,
		Service: DefaultService,
	}
}

// ParseLevel maps a level name to a LogLevel. Names are case-insensitive
// and "warning" is accepted for warn.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func (l LogLevel) toZerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup installs the global logger and level. An unrecognised level falls
// back to info.
func Setup(cfg Config) zerolog.Logger {
	level, _ := ParseLevel(string(cfg.Level))
	zerolog.SetGlobalLevel(level.toZerolog())

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	service := cfg.Service
	if service == "" {
		service = DefaultService
	}

	log.Logger = zerolog.New(output).With().
		Timestamp().
		Str(FieldService, service).
		Logger()
	return log.Logger
}

// NewLogger derives a component logger from the global logger.
func NewLogger(component string) zerolog.Logger {
	return Component(log.Logger, component)
}

// Component derives a logger tagged with component.
func Component(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str(FieldComponent, component).Logger()
}

// ForRequest derives a logger carrying the request's correlation fields.
func ForRequest(logger zerolog.Logger, req *client.Request) zerolog.Logger {
	if req == nil {
		return logger
	}
	return logger.With().
		Str(FieldRequestID, req.ID).
		Int(FieldPage, req.Page).
		Int(FieldLimit, req.Limit).
		Logger()
}

// ErrorFields adds the classification of err to event. Status fields are
// only set for HTTP failures and the fixture name only for fixture errors.
func ErrorFields(event *zerolog.Event, err *client.Error) *zerolog.Event {
	if err == nil {
		return event
	}
	event = event.Err(err).Str(FieldKind, string(err.Kind))
	if err.StatusCode != 0 {
		event = event.Int(FieldStatusCode, err.StatusCode).Str(FieldErrorClass, string(err.Class))
	}
	if err.Name != "" {
		event = event.Str(FieldFixture, err.Name)
	}
	return event
}

// Level guidelines:
//
// Debug: request built, response status, local store hits and misses,
// skipped or superseded feed loads.
//
// Info: decoded pages, feed page loads, server startup and shutdown.
//
// Warn: failed fetches and page loads, retries, local store read faults,
// rate limit cooldowns.
//
// Error: requests failing after retries, local store write faults,
// configuration errors.
