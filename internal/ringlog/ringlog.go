/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package ringlog implements the fixed-capacity circular command buffer:
// a ring of up to Capacity immutable entries, oldest evicted first, with
// byte-offset<->entry resolution for random-access reads over the
// concatenation of currently retained entries.
package ringlog

import "errors"

// Capacity is the ring size, fixed per the wire protocol's seek semantics.
const Capacity = 10

var (
	ErrInvalidCommand = errors.New("ringlog: invalid command index")
	ErrInvalidOffset  = errors.New("ringlog: invalid in-command offset")
)

// Entry is an owned immutable command, including its terminating newline.
type Entry struct {
	bytes []byte
	size  uint64
}

// NewEntry takes ownership of b. Callers must not mutate b afterwards.
func NewEntry(b []byte) Entry {
	if len(b) == 0 {
		panic("ringlog: zero-length entry")
	}
	return Entry{bytes: b, size: uint64(len(b))}
}

func (e Entry) Size() uint64    { return e.size }
func (e Entry) Bytes() []byte   { return e.bytes }

// Log is a fixed-capacity ring of entries. The zero value is not valid;
// use New.
type Log struct {
	slots  [Capacity]Entry
	filled [Capacity]bool
	inIdx  int
	outIdx int
	full   bool
}

// New returns an empty ring.
func New() *Log {
	return &Log{}
}

// Append places entry at the write cursor, evicting the oldest retained
// entry if the ring is already full. Never fails; eviction is silent.
func (l *Log) Append(e Entry) {
	l.slots[l.inIdx] = e
	l.filled[l.inIdx] = true
	wasFull := l.full
	l.inIdx = (l.inIdx + 1) % Capacity
	if wasFull {
		// the evicted slot is the one just overwritten, so it stays filled
		l.outIdx = (l.outIdx + 1) % Capacity
	}
	l.full = l.inIdx == l.outIdx
}

// EntryCount returns how many entries are currently retained.
func (l *Log) EntryCount() int {
	if l.full {
		return Capacity
	}
	return ((l.inIdx - l.outIdx) + Capacity) % Capacity
}

// TotalSize returns the sum of sizes over all retained entries.
func (l *Log) TotalSize() uint64 {
	var total uint64
	n := l.EntryCount()
	idx := l.outIdx
	for i := 0; i < n; i++ {
		total += l.slots[idx].size
		idx = (idx + 1) % Capacity
	}
	return total
}

// FindByByteOffset walks retained entries oldest-to-newest and returns the
// entry covering absolute offset off plus the offset within that entry.
// Returns ok=false for off == TotalSize() (one past end) or beyond.
func (l *Log) FindByByteOffset(off uint64) (e Entry, inEntryOffset uint64, ok bool) {
	n := l.EntryCount()
	idx := l.outIdx
	var cumulative uint64
	for i := 0; i < n; i++ {
		if !l.filled[idx] {
			break
		}
		s := l.slots[idx].size
		if cumulative+s > off {
			return l.slots[idx], off - cumulative, true
		}
		cumulative += s
		idx = (idx + 1) % Capacity
	}
	return Entry{}, 0, false
}

// AbsoluteOffsetOfCmd returns the starting byte offset of the k-th retained
// entry (0 == oldest). ok is false if k is out of range. The offset must be
// recomputed on every call: eviction shifts the origin, so it cannot be
// cached across appends.
func (l *Log) AbsoluteOffsetOfCmd(k int) (offset uint64, ok bool) {
	n := l.EntryCount()
	if k < 0 || k >= n {
		return 0, false
	}
	idx := l.outIdx
	for i := 0; i < k; i++ {
		offset += l.slots[idx].size
		idx = (idx + 1) % Capacity
	}
	return offset, true
}

// SeekTo resolves a (command index, in-command offset) positioning request
// into an absolute byte offset into the current snapshot.
func (l *Log) SeekTo(writeCmd, inCmdOffset uint32) (uint64, error) {
	n := l.EntryCount()
	if int(writeCmd) >= n || int(writeCmd) >= Capacity {
		return 0, ErrInvalidCommand
	}
	idx := (l.outIdx + int(writeCmd)) % Capacity
	if uint64(inCmdOffset) >= l.slots[idx].size {
		return 0, ErrInvalidOffset
	}
	base, _ := l.AbsoluteOffsetOfCmd(int(writeCmd))
	return base + uint64(inCmdOffset), nil
}

// Snapshot returns the concatenation of all retained entries, oldest first.
// The returned slice is a fresh copy; callers may not assume it aliases
// internal storage.
func (l *Log) Snapshot() []byte {
	out := make([]byte, 0, l.TotalSize())
	n := l.EntryCount()
	idx := l.outIdx
	for i := 0; i < n; i++ {
		out = append(out, l.slots[idx].bytes...)
		idx = (idx + 1) % Capacity
	}
	return out
}
