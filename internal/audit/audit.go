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

// Package audit is an optional, best-effort mirror of committed commands
// into SQL, outside the log store's own critical section. Driver selection
// by DSN scheme follows the same sql.Open("mysql", dsn)/sql.Open("postgres",
// dsn) shape as storage/mysql_import.go's openMySQL.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/aesdsocket-go/aesdsocket/internal/logging"
)

const createTableMySQL = `CREATE TABLE IF NOT EXISTS aesdsocket_commits (
	seq BIGINT PRIMARY KEY AUTO_INCREMENT,
	byte_size BIGINT NOT NULL,
	committed_at DATETIME NOT NULL
)`

const createTablePostgres = `CREATE TABLE IF NOT EXISTS aesdsocket_commits (
	seq BIGSERIAL PRIMARY KEY,
	byte_size BIGINT NOT NULL,
	committed_at TIMESTAMPTZ NOT NULL
)`

const insertMySQL = `INSERT INTO aesdsocket_commits (byte_size, committed_at) VALUES (?, ?)`
const insertPostgres = `INSERT INTO aesdsocket_commits (byte_size, committed_at) VALUES ($1, $2)`

// Sink mirrors commit events into a SQL table. A nil *Sink (from New with an
// empty DSN) is valid and its Record is a no-op, so callers never need a
// feature flag check of their own.
type Sink struct {
	db     *sql.DB
	insert string

	mu sync.Mutex
}

// New opens driver/table per dsn's scheme ("mysql://" or "postgres://"). An
// empty dsn disables the sink.
func New(dsn string) (*Sink, error) {
	if dsn == "" {
		return nil, nil
	}

	driver, insert, createTable, addr, found := splitDSN(dsn)
	if !found {
		return nil, fmt.Errorf("audit: unrecognized DSN scheme in %q", dsn)
	}

	db, err := sql.Open(driver, addr)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create table: %w", err)
	}

	return &Sink{db: db, insert: insert}, nil
}

func splitDSN(dsn string) (driver, insert, createTable, addr string, ok bool) {
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", insertMySQL, createTableMySQL, strings.TrimPrefix(dsn, "mysql://"), true
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", insertPostgres, createTablePostgres, dsn, true
	}
	return "", "", "", "", false
}

// Record inserts one row for a just-committed command. Best-effort: a
// failure is logged, never propagated, so a flaky audit database can't stall
// connection handling.
func (s *Sink) Record(byteSize int, committedAt time.Time) {
	if s == nil {
		return
	}
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.db.ExecContext(ctx, s.insert, byteSize, committedAt); err != nil {
			logging.PrintError("audit: insert: %v", err)
		}
	}()
}

// Close releases the underlying connection pool. Safe to call on a nil Sink.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
