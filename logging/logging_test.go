/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerSettings{Level: "info", Format: "json", Service: "metadatactl"}, &buf)
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "metadatactl", entry["service"])
	assert.Equal(t, "hello", entry["message"])
}

func TestOperation(t *testing.T) {
	notFound := errors.New("not found")
	expected := func(err error) bool { return errors.Is(err, notFound) }

	t.Run("unexpected error logs at error level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerSettings{Level: "error", Format: "json"}, &buf).With().
			Str("entityType", "accesstoken").Logger()
		Operation(logger, "get", time.Now(), errors.New("boom"), expected)
		assert.Contains(t, buf.String(), `"level":"error"`)
		assert.Equal(t, 1, strings.Count(buf.String(), `"entityType"`))
		assert.Contains(t, buf.String(), `"entityType":"accesstoken"`)
	})

	t.Run("expected error stays at debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerSettings{Level: "error", Format: "json"}, &buf)
		Operation(logger, "get", time.Now(), notFound, expected)
		assert.Empty(t, buf.String())
	})
}
