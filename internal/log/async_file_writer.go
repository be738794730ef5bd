package log

import (
	"io"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AsyncFileWriter decouples the logging call site from file I/O: writes are
// queued on a channel and flushed by a single background goroutine, so a
// slow or momentarily blocked disk never stalls a worker loop mid-poll.
// The rotation itself (size/age/backup count) is delegated to
// gopkg.in/natefinch/lumberjack.v2, matching the teacher's own dependency.
type AsyncFileWriter struct {
	lj      *lumberjack.Logger
	queue   chan []byte
	done    chan struct{}
	closeMu sync.Once
}

// NewAsyncFileWriter opens (or creates) path and starts the flush goroutine.
// maxSizeMB/maxAgeDays/maxBackups follow lumberjack's own semantics; zero
// means "no limit" for age/backups.
func NewAsyncFileWriter(path string, maxSizeMB, maxAgeDays, maxBackups int) *AsyncFileWriter {
	w := &AsyncFileWriter{
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxAge:     maxAgeDays,
			MaxBackups: maxBackups,
			Compress:   true,
		},
		queue: make(chan []byte, 1024),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncFileWriter) run() {
	defer close(w.done)
	for b := range w.queue {
		_, _ = w.lj.Write(b)
	}
}

// Write implements io.Writer. It never blocks on disk I/O; if the internal
// queue is saturated the line is dropped rather than stalling the caller,
// since log delivery is best-effort by design in this pipeline.
func (w *AsyncFileWriter) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case w.queue <- cp:
	default:
	}
	return len(p), nil
}

// Close stops accepting writes and waits for the queue to drain.
func (w *AsyncFileWriter) Close() error {
	w.closeMu.Do(func() { close(w.queue) })
	<-w.done
	return w.lj.Close()
}

var _ io.WriteCloser = (*AsyncFileWriter)(nil)
