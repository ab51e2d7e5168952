package ytdlp

import (
	"bytes"
	"strings"
	"sync"
)

// captureLimit is shared between the stdout and stderr writers so the
// ceiling applies to combined output.
type captureLimit struct {
	mu       sync.Mutex
	max      int64
	used     int64
	exceeded bool
	onExceed func()
}

// take reserves n bytes and reports whether they fit.
func (l *captureLimit) take(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exceeded {
		return false
	}
	if l.max > 0 && l.used+int64(n) > l.max {
		l.exceeded = true
		if l.onExceed != nil {
			l.onExceed()
		}
		return false
	}
	l.used += int64(n)
	return true
}

func (l *captureLimit) Exceeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exceeded
}

// streamWriter buffers everything written to it and calls back once per
// complete line. The callback may be invoked from the stdout and stderr
// copy goroutines concurrently. yt-dlp redraws progress with \r, so both \r and \n end a line.
type streamWriter struct {
	stream   string
	callback func(stream string, line string)
	buffer   bytes.Buffer
	pending  []byte
	limit    *captureLimit
}

func (w *streamWriter) Write(p []byte) (int, error) {
	// Report the full length even past the limit so the copy goroutine keeps
	// draining the pipe while the process is being killed.
	if w.limit != nil && !w.limit.take(len(p)) {
		return len(p), nil
	}
	w.buffer.Write(p)

	if w.callback == nil {
		return len(p), nil
	}
	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexAny(w.pending, "\r\n")
		if idx < 0 {
			break
		}
		line := string(w.pending[:idx])
		consume := 1
		if w.pending[idx] == '\r' && idx+1 < len(w.pending) && w.pending[idx+1] == '\n' {
			consume = 2
		}
		w.pending = w.pending[idx+consume:]
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			w.callback(w.stream, trimmed)
		}
	}
	return len(p), nil
}

// flush emits a trailing line that had no terminator.
func (w *streamWriter) flush() {
	if w.callback == nil || len(w.pending) == 0 {
		return
	}
	if trimmed := strings.TrimSpace(string(w.pending)); trimmed != "" {
		w.callback(w.stream, trimmed)
	}
	w.pending = nil
}

func (w *streamWriter) String() string {
	return w.buffer.String()
}
