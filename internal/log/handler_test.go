package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalHandlerColorToggle(t *testing.T) {
	var plain, colored bytes.Buffer
	NewWithHandler(NewTerminalHandler(&plain, false)).Error("boom")
	NewWithHandler(NewTerminalHandler(&colored, true)).Error("boom")

	require.Contains(t, plain.String(), "EROR")
	// color.New emits ANSI escape codes around the level tag; the plain
	// and colored renderings of the same record must therefore differ.
	require.NotEqual(t, plain.String(), colored.String())
}

func TestTerminalHandlerWithAttrsIsCumulative(t *testing.T) {
	var buf bytes.Buffer
	h := NewTerminalHandler(&buf, false)
	l := NewWithHandler(h).New("component", "mintlayer")
	l.Info("submitted", "tx_hash", "0xabc")

	out := buf.String()
	require.Contains(t, out, "component=mintlayer")
	require.Contains(t, out, "tx_hash=0xabc")
}
