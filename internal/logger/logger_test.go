package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "inspection").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "shown", entry["message"])
	require.Equal(t, "inspection", entry["component"])
	require.Equal(t, "warn", entry["level"])
	require.Contains(t, entry, "time")
}
