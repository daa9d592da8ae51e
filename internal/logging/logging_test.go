package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, SetupLogging("debug").Level)
	assert.Equal(t, logrus.InfoLevel, SetupLogging("chatty").Level)
}

func TestLogDataEmitsFieldsAndTimings(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogging("info")
	logger.Out = &buf

	data := NewLogData(logger)
	data.AddData("path", "/api/deposit")
	stop := data.AddTiming("duration")
	stop()
	data.Log().Info("done")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/api/deposit", line["path"])
	assert.Equal(t, "info", line["loglevel"])
	assert.Contains(t, line, "duration")
}
