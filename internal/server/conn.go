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

package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/aesdsocket-go/aesdsocket/internal/adminhttp"
	"github.com/aesdsocket-go/aesdsocket/internal/audit"
	"github.com/aesdsocket-go/aesdsocket/internal/logging"
	"github.com/aesdsocket-go/aesdsocket/internal/logstore"
)

const readChunk = 4096

// handler drives one accepted connection end to end: reassembling
// newline-terminated commands out of arbitrarily fragmented reads, applying
// them to the shared store, and replaying the full log after every commit.
type handler struct {
	id       uint64
	conn     net.Conn
	store    logstore.Store
	auditLog *audit.Sink
	admin    *adminhttp.Server
}

// auditLog and admin may be nil; both are safe to call on a nil receiver so
// the handler never needs its own "is this feature enabled" branch.
func newHandler(id uint64, conn net.Conn, store logstore.Store, auditLog *audit.Sink, admin *adminhttp.Server) *handler {
	return &handler{id: id, conn: conn, store: store, auditLog: auditLog, admin: admin}
}

// run blocks until the peer closes the connection or a send/receive fails.
// Any unterminated tail left in pending at that point is discarded, per the
// no-newline-no-commit rule.
func (h *handler) run() {
	defer h.conn.Close()

	var pending []byte
	buf := make([]byte, readChunk)
	for {
		n, err := h.conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := pending[:idx+1]
				rest := make([]byte, len(pending)-(idx+1))
				copy(rest, pending[idx+1:])
				pending = rest

				if !h.handleLine(line) {
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.PrintError("conn %d: read: %v", h.id, err)
			}
			return
		}
	}
}

// handleLine processes one complete, newline-terminated command and streams
// the reply. It returns false if the connection should be torn down.
func (h *handler) handleLine(line []byte) bool {
	cursor := uint64(0)

	text := string(line[:len(line)-1])
	if writeCmd, inCmdOffset, ok := parseControlCommand(text); ok {
		if abs, err := h.store.SeekTo(writeCmd, inCmdOffset); err == nil {
			cursor = abs
		}
		// an invalid or unsupported seek falls back to replaying from the
		// start of the log, rather than failing the connection.
	} else {
		if err := h.store.Append(line); err != nil {
			logging.PrintError("conn %d: append: %v", h.id, err)
			return false
		}
		committedAt := time.Now()
		h.auditLog.Record(len(line), committedAt)
		h.admin.Broadcast(line)
	}

	return h.reply(cursor)
}

func (h *handler) reply(cursor uint64) bool {
	buf := make([]byte, readChunk)
	for {
		n, err := h.store.SnapshotRead(&cursor, buf)
		if err != nil {
			logging.PrintError("conn %d: snapshot read: %v", h.id, err)
			return false
		}
		if n == 0 {
			return true
		}
		if _, err := h.conn.Write(buf[:n]); err != nil {
			logging.PrintError("conn %d: write: %v", h.id, err)
			return false
		}
	}
}
