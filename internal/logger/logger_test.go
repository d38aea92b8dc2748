package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_InvalidLevel(t *testing.T) {
	_, _, err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInit_NoFileDiscards(t *testing.T) {
	l, closer, err := Init(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netradar.log")
	l, closer, err := Init(Config{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"message":"shown"`)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := WithComponent(New(&buf, zerolog.InfoLevel), "scheduler")
	l.Info().Msg("tick")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scheduler", line["component"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "time")
}
