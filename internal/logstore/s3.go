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

// S3 does not support append; like the teacher's column/log storage, we
// buffer the whole log in memory and replace the object on every commit.
// That keeps the semantics identical to FileStore (single growing blob)
// while living in object storage instead of on local disk.

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStoreConfig configures the S3-compatible backend.
type ObjectStoreConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // custom endpoint for S3-compatible storage (MinIO, etc.)
	Bucket          string
	Key             string // object key holding the full log
	ForcePathStyle  bool
}

// ObjectStore is the S3-backed LogStore backend.
type ObjectStore struct {
	cfg ObjectStoreConfig

	mu     sync.Mutex
	client *s3.Client
	opened bool

	buf   bytes.Buffer
	index *cmdIndex
}

// NewObjectStore returns an empty S3-backed store; the client connects
// lazily on first use, mirroring the teacher's S3Storage.ensureOpen.
func NewObjectStore(cfg ObjectStoreConfig) *ObjectStore {
	return &ObjectStore{cfg: cfg, index: newCmdIndex()}
}

func (s *ObjectStore) ensureOpen(ctx context.Context) error {
	if s.opened {
		return nil
	}
	optFns := []func(*config.LoadOptions) error{}
	if s.cfg.Region != "" {
		optFns = append(optFns, config.WithRegion(s.cfg.Region))
	}
	if s.cfg.AccessKeyID != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return fmt.Errorf("logstore: load aws config: %w", err)
	}
	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		}
		o.UsePathStyle = s.cfg.ForcePathStyle
	})
	s.opened = true
	return nil
}

// Append buffers b in memory and flushes the whole buffer back to the
// object, atomic w.r.t. concurrent readers/writers via mu.
func (s *ObjectStore) Append(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := context.Background()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	s.index.record(uint64(s.buf.Len()))
	s.buf.Write(b)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.cfg.Key),
		Body:   bytes.NewReader(s.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("logstore: s3 put: %w", err)
	}
	return nil
}

func (s *ObjectStore) SnapshotRead(cursor *uint64, out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.buf.Bytes()
	if *cursor >= uint64(len(data)) {
		return 0, nil
	}
	n := copy(out, data[*cursor:])
	*cursor += uint64(n)
	return n, nil
}

// SeekTo is unsupported on the object backend (same contract as FileStore).
func (s *ObjectStore) SeekTo(writeCmd, inCmdOffset uint32) (uint64, error) {
	return 0, ErrUnsupported
}

func (s *ObjectStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.index.count())
}

func (s *ObjectStore) TotalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.buf.Len())
}

func (s *ObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	return nil
}
