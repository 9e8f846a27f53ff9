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

package logstore

import (
	"sync"

	"github.com/aesdsocket-go/aesdsocket/internal/ringlog"
)

// MemoryStore is a ringlog.Log behind a mutex, the default backend.
type MemoryStore struct {
	mu  sync.Mutex
	log *ringlog.Log
}

// NewMemoryStore returns an empty in-memory ring-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{log: ringlog.New()}
}

// Append commits b as one entry. Callers (the connection handler) guarantee
// b ends in exactly one trailing newline; the ring never rejects a write.
func (s *MemoryStore) Append(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.mu.Lock()
	s.log.Append(ringlog.NewEntry(cp))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SnapshotRead(cursor *uint64, out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.log.Snapshot()
	if *cursor >= uint64(len(snap)) {
		return 0, nil
	}
	n := copy(out, snap[*cursor:])
	*cursor += uint64(n)
	return n, nil
}

func (s *MemoryStore) SeekTo(writeCmd, inCmdOffset uint32) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.SeekTo(writeCmd, inCmdOffset)
}

func (s *MemoryStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.EntryCount()
}

func (s *MemoryStore) TotalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.TotalSize()
}

func (s *MemoryStore) Close() error { return nil }
