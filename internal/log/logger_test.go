package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesMessageAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(NewTerminalHandler(&buf, false))

	l.Info("operation processed", "id", "abc-123", "attempts", 2)

	out := buf.String()
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "operation processed")
	require.Contains(t, out, "id=abc-123")
	require.Contains(t, out, "attempts=2")
}

func TestNewBindsContext(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithHandler(NewTerminalHandler(&buf, false))
	worker := root.New("worker", "ipfs")

	worker.Warn("upload failed", "attempt", 1)

	require.Contains(t, buf.String(), "worker=ipfs")
	require.Contains(t, buf.String(), "WARN")
}

func TestCritIsDistinctFromError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(NewTerminalHandler(&buf, false))
	l.Crit("unrecoverable")
	require.Contains(t, buf.String(), "CRIT")
}
