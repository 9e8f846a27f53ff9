/*
Copyright (C) 2024  Carl-Philip Hänsch

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
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// FileStore is the unbounded, append-only backend: a single growing file,
// removed on startup and on shutdown. It maintains a cmdIndex purely for
// observability; SeekTo always reports ErrUnsupported (spec Open Questions:
// the structured seek contract belongs to the ring backend only).
type FileStore struct {
	path string

	mu    sync.Mutex
	f     *os.File
	size  uint64
	index *cmdIndex

	watcher  *fsnotify.Watcher
	watchErr func(error)

	rotateThreshold uint64
	archiveXZ       bool
}

// FileStoreOption configures optional, default-off behaviors.
type FileStoreOption func(*FileStore)

// WithTamperWatch logs (via onWarn) if the backing file is removed or
// replaced out from under the store. Never crashes the handler: this is a
// BackendIOFailure-class warning, not a fatal error.
func WithTamperWatch(onWarn func(error)) FileStoreOption {
	return func(s *FileStore) { s.watchErr = onWarn }
}

// WithRotation enables archiving the current file when an append would push
// it past thresholdBytes: the file is renamed aside and compressed (lz4 by default,
// xz if archiveXZ is true), then a fresh file is opened in its place. Off by
// default so the spec's "single growing file" scenarios are unaffected.
func WithRotation(thresholdBytes uint64, archiveXZ bool) FileStoreOption {
	return func(s *FileStore) {
		s.rotateThreshold = thresholdBytes
		s.archiveXZ = archiveXZ
	}
}

// NewFileStore opens (creating if needed) the backing file at path, removing
// any stale prior contents first, per the lifecycle contract.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	os.Remove(path)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0640)
	if err != nil {
		return nil, fmt.Errorf("logstore: open backing file: %w", err)
	}
	s := &FileStore{path: path, f: f, index: newCmdIndex()}
	for _, opt := range opts {
		opt(s)
	}
	if s.watchErr != nil {
		if w, err := fsnotify.NewWatcher(); err == nil {
			w.Add(path)
			s.watcher = w
			go s.watchLoop()
		}
	}
	return s, nil
}

func (s *FileStore) watchLoop() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				s.watchErr(fmt.Errorf("logstore: backing file %s was removed or replaced externally", s.path))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.watchErr(err)
		}
	}
}

// Append writes b verbatim to the end of the file and records its starting
// offset in the command index.
func (s *FileStore) Append(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotateThreshold > 0 && s.size+uint64(len(b)) > s.rotateThreshold {
		if err := s.rotateLocked(); err != nil {
			return fmt.Errorf("logstore: rotate: %w", err)
		}
	}
	n, err := s.f.Write(b)
	if err != nil {
		return fmt.Errorf("logstore: write: %w", err)
	}
	s.index.record(s.size)
	s.size += uint64(n)
	return nil
}

func (s *FileStore) rotateLocked() error {
	s.f.Close()
	archivePath := s.path + ".1"
	if err := os.Rename(s.path, archivePath); err != nil {
		return err
	}
	go compressArchive(archivePath, s.archiveXZ)

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0640)
	if err != nil {
		return err
	}
	s.f = f
	s.size = 0
	s.index = newCmdIndex()
	return nil
}

func compressArchive(path string, useXZ bool) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()
	defer os.Remove(path)

	ext := ".lz4"
	if useXZ {
		ext = ".xz"
	}
	out, err := os.Create(path + ext)
	if err != nil {
		return
	}
	defer out.Close()

	if useXZ {
		w, err := xz.NewWriter(out)
		if err != nil {
			return
		}
		defer w.Close()
		io.Copy(w, in)
	} else {
		w := lz4.NewWriter(out)
		defer w.Close()
		io.Copy(w, in)
	}
}

func (s *FileStore) SnapshotRead(cursor *uint64, out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *cursor >= s.size {
		return 0, nil
	}
	n, err := s.f.ReadAt(out, int64(*cursor))
	if n > 0 {
		*cursor += uint64(n)
	}
	if err == io.EOF {
		err = nil
	}
	if err != nil {
		return n, fmt.Errorf("logstore: read: %w", err)
	}
	return n, nil
}

// SeekTo is unsupported on the file backend (spec.md §4.2/§7).
func (s *FileStore) SeekTo(writeCmd, inCmdOffset uint32) (uint64, error) {
	return 0, ErrUnsupported
}

func (s *FileStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.index.count())
}

func (s *FileStore) TotalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close removes the backing file, per the lifecycle contract.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Close()
	}
	err := s.f.Close()
	os.Remove(s.path)
	return err
}
