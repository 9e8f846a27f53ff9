//go:build ceph

/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

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

// RADOS has no append API, but it does allow writes at an offset, so the
// whole log is kept as a single growing object and we track our own
// write-offset the way the teacher's CephStorage tracks per-segment offsets.

import (
	"fmt"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

type CephStoreConfig struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Object      string
}

type CephStore struct {
	cfg CephStoreConfig

	mu     sync.Mutex
	conn   *rados.Conn
	ioctx  *rados.IOContext
	opened bool

	size  uint64
	index *cmdIndex
}

func NewCephStore(cfg CephStoreConfig) (Store, error) {
	return &CephStore{cfg: cfg, index: newCmdIndex()}, nil
}

func (s *CephStore) ensureOpen() error {
	if s.opened {
		return nil
	}
	conn, err := rados.NewConnWithClusterAndUser(s.cfg.ClusterName, s.cfg.UserName)
	if err != nil {
		return err
	}
	if s.cfg.ConfFile != "" {
		if err := conn.ReadConfigFile(s.cfg.ConfFile); err != nil {
			return err
		}
	} else {
		_ = conn.ReadDefaultConfigFile()
	}
	if err := conn.Connect(); err != nil {
		return err
	}
	ioctx, err := conn.OpenIOContext(s.cfg.Pool)
	if err != nil {
		conn.Shutdown()
		return err
	}
	s.conn = conn
	s.ioctx = ioctx
	s.opened = true
	return nil
}

func (s *CephStore) Append(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return fmt.Errorf("logstore: ceph connect: %w", err)
	}
	op := rados.CreateWriteOp()
	defer op.Release()
	op.Write(b, s.size)
	if err := op.Operate(s.ioctx, s.cfg.Object, rados.OperationNoFlag); err != nil {
		return fmt.Errorf("logstore: ceph write: %w", err)
	}
	s.index.record(s.size)
	s.size += uint64(len(b))
	return nil
}

func (s *CephStore) SnapshotRead(cursor *uint64, out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *cursor >= s.size {
		return 0, nil
	}
	n, err := s.ioctx.Read(s.cfg.Object, out, *cursor)
	if err != nil {
		return 0, fmt.Errorf("logstore: ceph read: %w", err)
	}
	*cursor += uint64(n)
	return n, nil
}

func (s *CephStore) SeekTo(writeCmd, inCmdOffset uint32) (uint64, error) {
	return 0, ErrUnsupported
}

func (s *CephStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.index.count())
}

func (s *CephStore) TotalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *CephStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		s.ioctx.Destroy()
		s.conn.Shutdown()
	}
	return nil
}
