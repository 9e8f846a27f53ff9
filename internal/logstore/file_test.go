package logstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aesdsocketdata")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer s.Close()

	if err := s.Append([]byte("a\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append([]byte("bb\n")); err != nil {
		t.Fatalf("append: %v", err)
	}

	var cursor uint64
	buf := make([]byte, 64)
	n, err := s.SnapshotRead(&cursor, buf)
	if err != nil {
		t.Fatalf("snapshot read: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("a\nbb\n")) {
		t.Fatalf("expected %q, got %q", "a\nbb\n", buf[:n])
	}
	if s.EntryCount() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.EntryCount())
	}
}

func TestFileStoreSeekUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aesdsocketdata")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer s.Close()
	if _, err := s.SeekTo(0, 0); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFileStoreCloseRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aesdsocketdata")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	s.Append([]byte("x\n"))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected backing file removed, stat err=%v", err)
	}
}
