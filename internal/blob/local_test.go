package blob

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveReturnsURLAndSize(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads", 1024)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	url, size, err := s.Save("photo.PNG", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if size != int64(len("content")) {
		t.Fatalf("size = %d, want %d", size, len("content"))
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q, want /uploads/<uuid>.png", url)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.Base(url)))
	if err != nil {
		t.Fatalf("reading stored blob: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestSaveRejectsOversizedBlob(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads", 4)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	if _, _, err := s.Save("big.bin", strings.NewReader("way too big")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("oversized blob should be removed, found %d entries", len(entries))
	}
}

func TestSaveDropsSuspiciousExtension(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads", 1024)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	url, _, err := s.Save("weird.averylongextension", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(url, ".averylongextension") {
		t.Fatalf("url = %q, extension should have been dropped", url)
	}
}
