package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(&buf, "debug", "JSON")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("model", "xgb").Info("registered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "registered", entry["msg"])
	assert.Equal(t, "xgb", entry["model"])
	assert.Equal(t, "info", entry["level"])
}

func TestTextFormatFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(&buf, "warn", "")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidSettings(t *testing.T) {
	_, err := New("loud", "text")
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}
