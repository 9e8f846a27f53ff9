package ringlog

import (
	"bytes"
	"fmt"
	"testing"
)

func cmd(n int) []byte {
	return []byte(fmt.Sprintf("%02d\n", n))
}

func TestEmptyLog(t *testing.T) {
	l := New()
	if l.EntryCount() != 0 {
		t.Fatalf("expected empty ring, got %d entries", l.EntryCount())
	}
	if l.TotalSize() != 0 {
		t.Fatalf("expected zero size, got %d", l.TotalSize())
	}
	if _, _, ok := l.FindByByteOffset(0); ok {
		t.Fatalf("FindByByteOffset(0) on empty ring should miss")
	}
}

func TestCapacityAndFIFOEviction(t *testing.T) {
	l := New()
	const n = 11
	for i := 1; i <= n; i++ {
		l.Append(NewEntry(cmd(i)))
	}
	if l.EntryCount() != Capacity {
		t.Fatalf("expected %d entries, got %d", Capacity, l.EntryCount())
	}
	// oldest retained is command 2 (command 1 was evicted)
	e, _, ok := l.FindByByteOffset(0)
	if !ok || !bytes.Equal(e.Bytes(), cmd(2)) {
		t.Fatalf("expected oldest retained entry to be %q, got %q (ok=%v)", cmd(2), e.Bytes(), ok)
	}
	if l.TotalSize() != 30 {
		t.Fatalf("expected total size 30, got %d", l.TotalSize())
	}
}

func TestOffsetEntryCorrespondence(t *testing.T) {
	l := New()
	for i := 1; i <= 5; i++ {
		l.Append(NewEntry(cmd(i)))
	}
	snapshot := l.Snapshot()
	for off := uint64(0); off < uint64(len(snapshot)); off++ {
		e, inOff, ok := l.FindByByteOffset(off)
		if !ok {
			t.Fatalf("offset %d: expected a hit", off)
		}
		if e.Bytes()[inOff] != snapshot[off] {
			t.Fatalf("offset %d: byte mismatch: entry byte %q != snapshot byte %q", off, e.Bytes()[inOff], snapshot[off])
		}
	}
	if _, _, ok := l.FindByByteOffset(uint64(len(snapshot))); ok {
		t.Fatalf("one-past-end offset should miss")
	}
}

func TestSeekInverse(t *testing.T) {
	l := New()
	for i := 1; i <= 5; i++ {
		l.Append(NewEntry(cmd(i)))
	}
	for k := 0; k < l.EntryCount(); k++ {
		base, ok := l.AbsoluteOffsetOfCmd(k)
		if !ok {
			t.Fatalf("cmd %d: expected AbsoluteOffsetOfCmd to succeed", k)
		}
		size := l.slots[(l.outIdx+k)%Capacity].size
		for off := uint64(0); off < size; off++ {
			abs, err := l.SeekTo(uint32(k), uint32(off))
			if err != nil {
				t.Fatalf("cmd %d off %d: SeekTo failed: %v", k, off, err)
			}
			if abs != base+off {
				t.Fatalf("cmd %d off %d: expected abs %d, got %d", k, off, base+off, abs)
			}
			e, inOff, ok := l.FindByByteOffset(abs)
			if !ok || inOff != off {
				t.Fatalf("cmd %d off %d: FindByByteOffset(%d) did not round-trip: inOff=%d ok=%v", k, off, abs, inOff, ok)
			}
			_ = e
		}
	}
}

func TestSeekErrors(t *testing.T) {
	l := New()
	l.Append(NewEntry(cmd(1)))
	if _, err := l.SeekTo(1, 0); err != ErrInvalidCommand {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
	if _, err := l.SeekTo(0, 100); err != ErrInvalidOffset {
		t.Fatalf("expected ErrInvalidOffset, got %v", err)
	}
}

func TestEvictionAfterWraparound(t *testing.T) {
	l := New()
	for round := 0; round < 3; round++ {
		for i := 0; i < Capacity; i++ {
			l.Append(NewEntry(cmd(round*Capacity + i)))
		}
		if l.EntryCount() != Capacity {
			t.Fatalf("round %d: expected full ring, got %d", round, l.EntryCount())
		}
	}
}
