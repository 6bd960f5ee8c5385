package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "info", Format: "json", Output: &buf})

	log.Info().Str("prefix", "photos/").Msg("listed folder")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "photos/", entry["prefix"])
	assert.Equal(t, "listed folder", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "warn", Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Msg("hidden too")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "debug", Output: &buf}).With().Str("component", "bulk-delete").Int("chunk", 2).Logger()

	log.Error().Msg("chunk failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bulk-delete", entry["component"])
	assert.EqualValues(t, 2, entry["chunk"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNop_DiscardsOutput(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Str("k", "v").Msg("ignored")
	})
}
