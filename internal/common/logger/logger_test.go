package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New("delay-monitor")
	l.SetOutput(&buf)

	l.Info("monitor_tick", map[string]any{"delayed": 3})
	l.Error("snapshot_failed", errors.New("connection refused"), nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "delay-monitor", lines[0]["service"])
	assert.Equal(t, "monitor_tick", lines[0]["action"])
	assert.Equal(t, "monitor_tick", lines[0]["message"])
	assert.EqualValues(t, 3, lines[0]["delayed"])
	assert.Contains(t, lines[0], "timestamp")
	assert.Contains(t, lines[0], "hostname")

	assert.Equal(t, "error", lines[1]["level"])
	errField, ok := lines[1]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connection refused", errField["msg"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New("board-service")
	l.SetOutput(&buf)

	l.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	require.NoError(t, l.SetLevel("debug"))
	l.Debug("shown", nil)
	l.Warn("careful", map[string]any{"level_hint": "x"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "warning", lines[1]["level"])

	assert.Error(t, l.SetLevel("loud"))
	assert.NoError(t, l.SetLevel(""))
}
