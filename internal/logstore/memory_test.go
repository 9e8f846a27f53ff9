package logstore

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreRoundTripCommitThenRead(t *testing.T) {
	s := NewMemoryStore()
	before := s.TotalSize()
	cmdline := []byte("hello\n")
	if err := s.Append(cmdline); err != nil {
		t.Fatalf("append: %v", err)
	}
	cursor := before
	buf := make([]byte, len(cmdline))
	n, err := s.SnapshotRead(&cursor, buf)
	if err != nil {
		t.Fatalf("snapshot read: %v", err)
	}
	if !bytes.Equal(buf[:n], cmdline) {
		t.Fatalf("expected %q, got %q", cmdline, buf[:n])
	}
}

func TestMemoryStoreEndOfLogReturnsZero(t *testing.T) {
	s := NewMemoryStore()
	s.Append([]byte("a\n"))
	var cursor uint64
	buf := make([]byte, 16)
	n, _ := s.SnapshotRead(&cursor, buf)
	if n != 2 {
		t.Fatalf("expected 2 bytes, got %d", n)
	}
	n, _ = s.SnapshotRead(&cursor, buf)
	if n != 0 {
		t.Fatalf("expected end-of-log 0, got %d", n)
	}
}

// TestConcurrentWritersAndReaders exercises property 7 with M concurrent
// writers and R concurrent readers: every non-empty read must contain at
// least one newline, and once the writers finish the ring must hold exactly
// its 10-entry capacity.
func TestConcurrentWritersAndReaders(t *testing.T) {
	s := NewMemoryStore()
	const writers = 4
	const perWriter = 50

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				line := []byte(fmt.Sprintf("w%d-%d\n", w, i))
				s.Append(line)
			}
		}()
	}

	const readers = 4
	errCh := make(chan error, readers)
	var rwg sync.WaitGroup
	rwg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer rwg.Done()
			var cursor uint64
			buf := make([]byte, 4096)
			for i := 0; i < 20; i++ {
				n, err := s.SnapshotRead(&cursor, buf)
				if err != nil {
					errCh <- err
					return
				}
				if n == 0 {
					continue
				}
				if bytes.Count(buf[:n], []byte("\n")) == 0 {
					errCh <- fmt.Errorf("read %d bytes with no newline: %q", n, buf[:n])
					return
				}
			}
		}()
	}

	wg.Wait()
	rwg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("reader observed invalid data: %v", err)
	}

	if s.EntryCount() != 10 {
		t.Fatalf("expected ring capacity 10 after quiescence, got %d", s.EntryCount())
	}
}
