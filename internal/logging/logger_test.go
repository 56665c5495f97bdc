package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeEntry parses the single JSON log line in buf.
func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	require.NotContains(t, line, "\n", "expected exactly one entry")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.Info("solve accepted", map[string]interface{}{
		"algorithm": "grasp",
		"cities":    42,
	})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "solve accepted", entry["message"])
	assert.Equal(t, "grasp", entry["algorithm"])
	assert.EqualValues(t, 42, entry["cities"])
	assert.Contains(t, entry["caller"], "logger_test.go")

	_, err := time.Parse(time.RFC3339Nano, entry["timestamp"].(string))
	assert.NoError(t, err)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("suppressed")
	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Warn("written")
	logger.Error("also written")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(InfoLevel, &buf)

	child := base.WithFields(map[string]interface{}{"job_id": "job_1", "attempt": 1}).
		WithField("component", "server").
		WithError(errors.New("boom"))

	// Per-call fields win over the bound ones.
	child.Info("retrying", map[string]interface{}{"attempt": 2})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "job_1", entry["job_id"])
	assert.EqualValues(t, 2, entry["attempt"])
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "boom", entry["error"])

	// The parent logger is unchanged.
	buf.Reset()
	base.Info("clean")
	entry = decodeEntry(t, &buf)
	assert.NotContains(t, entry, "job_id")
}

func TestCtxLoggerRoundTrip(t *testing.T) {
	logger := &CtxLogger{New(DebugLevel, &bytes.Buffer{})}

	ctx := logger.WithContext(context.Background())
	assert.Same(t, logger, FromContext(ctx))

	// A bare context still yields a usable logger.
	assert.NotNil(t, FromContext(context.Background()).Logger)
}
