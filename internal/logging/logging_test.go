package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	logger, closer, err := New(Config{})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer, err := New(Config{Level: tt.level})
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestNewErrors(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, _, err = New(Config{Output: filepath.Join(t.TempDir(), "missing", "scan.log")})
	assert.Error(t, err)
}

func TestNewJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanbridge.log")
	logger, closer, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug().Str("port", "/dev/ttyUSB0").Msg("connected")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "/dev/ttyUSB0", entry["port"])
	assert.Equal(t, "connected", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewConsoleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanbridge.log")
	logger, closer, err := New(Config{Output: path})
	require.NoError(t, err)

	logger.Info().Str("status", "STATUS:STARTED").Msg("status changed")
	logger.Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status changed")
	assert.Contains(t, string(data), "status=STATUS:STARTED")
	assert.NotContains(t, string(data), "hidden")
}
