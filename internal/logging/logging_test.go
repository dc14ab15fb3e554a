package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"docportal-backend/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelValidate(t *testing.T) {
	for _, l := range []logging.Level{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError} {
		assert.NoError(t, l.Validate())
	}
	assert.Error(t, logging.Level("verbose").Validate())
	assert.Equal(t, slog.LevelInfo, logging.Level("verbose").ToSlogLevel())
	assert.Equal(t, slog.LevelWarn, logging.LevelWarn.ToSlogLevel())
}

func TestFormatValidate(t *testing.T) {
	assert.NoError(t, logging.FormatText.Validate())
	assert.NoError(t, logging.FormatJSON.Validate())
	assert.Error(t, logging.Format("xml").Validate())
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.LevelWarn, logging.FormatJSON)

	logger.Info("dropped")
	logger.Warn("kept", "system", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "test", entry["system"])
}
