package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)

	logger.WithField("slug", "hello").Debug("rendered post")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rendered post", entry["msg"])
	assert.Equal(t, "hello", entry["slug"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_TextDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("", "", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNew_LevelIsCaseInsensitive(t *testing.T) {
	logger, err := New("WARN", "TEXT", nil)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "text", nil)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml", nil)
	assert.ErrorContains(t, err, "invalid log format")
}
