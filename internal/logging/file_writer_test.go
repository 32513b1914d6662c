package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncatingFileStaysUnderLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.log")
	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	chunk := make([]byte, 400*1024)
	for i := 0; i < 4; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1<<20 {
		t.Fatalf("expected log <= 1MB, got %d", info.Size())
	}
}

func TestTruncatingFileAppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.log")
	if err := os.WriteFile(path, []byte("previous\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	w, err := newSizeLimitedWriter(path, 0)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if _, err := w.Write([]byte("next\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(raw) != "previous\nnext\n" {
		t.Fatalf("log content = %q", raw)
	}
}
