/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package logging builds the zerolog loggers used across the metadata store.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/metadatastore/config"
)

// New creates a logger from settings. A nil out writes to stderr.
func New(settings config.LoggerSettings, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if settings.Format == config.LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	service := settings.Service
	if service == "" {
		service = "metadatastore"
	}

	return zerolog.New(out).
		Level(ParseLevel(settings.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel maps a configured level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case config.LogLevelDebug:
		return zerolog.DebugLevel
	case config.LogLevelWarn:
		return zerolog.WarnLevel
	case config.LogLevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Component returns a child logger tagged with component.
func Component(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// Operation logs a completed storage operation. The entity type comes from the logger
// context. Errors are logged at error level except for expected outcomes, which stay at debug.
func Operation(logger zerolog.Logger, operation string, started time.Time, err error, expected func(error) bool) {
	event := logger.Debug()
	if err != nil && (expected == nil || !expected(err)) {
		event = logger.Error().Err(err)
	} else if err != nil {
		event = event.AnErr("outcome", err)
	}
	event.
		Str("operation", operation).
		Dur("duration", time.Since(started)).
		Msg("metadata operation completed")
}
