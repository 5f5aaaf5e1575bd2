package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogHandler_ForwardsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "debug", Format: "json", Output: &buf})
	log := slog.New(NewSlogHandler(zl)).With(Component("matcher")).WithGroup("run")

	log.Info("matches generated", RouletteID(7), slog.Int("iterations", 120), Err(errors.New("boom")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "matches generated", entry["message"])
	assert.Equal(t, "matcher", entry["component"])
	assert.Equal(t, float64(7), entry["run.roulette_id"])
	assert.Equal(t, float64(120), entry["run.iterations"])
	assert.Equal(t, "boom", entry["run.error"])
}

func TestSlogHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewSlogHandler(New(Config{Level: "warn", Output: &buf})))

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}
