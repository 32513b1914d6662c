package logging

import (
	"os"
	"sync"
)

const defaultMaxLogMB = 10

// truncatingFile is an append-only log file that starts over once it would
// grow past maxBytes. The companion is a desktop helper; keeping one bounded
// file is enough and avoids a rotation dependency.
type truncatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	f        *os.File
	written  int64
}

func newSizeLimitedWriter(path string, maxMB int) (*truncatingFile, error) {
	if maxMB <= 0 {
		maxMB = defaultMaxLogMB
	}
	w := &truncatingFile{path: path, maxBytes: int64(maxMB) << 20}
	if err := w.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *truncatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		if err := w.open(os.O_APPEND); err != nil {
			return 0, err
		}
	}
	if w.written+int64(len(p)) > w.maxBytes {
		_ = w.f.Close()
		if err := w.open(os.O_TRUNC); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *truncatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// open must be called with mu held (or before the writer is shared).
func (w *truncatingFile) open(mode int) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		w.f = nil
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		w.f = nil
		return err
	}
	w.f = f
	w.written = info.Size()
	return nil
}
