package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsyncFileWriterFlushesToDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "da-pipeline.log")

	w := NewAsyncFileWriter(path, 1, 1, 1)
	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestAsyncFileWriterNeverBlocksCaller(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "da-pipeline.log")
	w := NewAsyncFileWriter(path, 1, 1, 1)
	defer w.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_, _ = w.Write([]byte("line\n"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writes blocked on a saturated queue")
	}
}
