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

// Package logstore is the shared log abstraction consumed by the server.
// All backends serialize Append and SnapshotRead behind a single lock held
// for the duration of a full reply, per the concurrency model: a reader's
// snapshot reflects the log state at the moment its SnapshotRead call began,
// and writes are totally ordered by lock acquisition.
package logstore

import "errors"

// ErrUnsupported is returned by SeekTo on backends that have no structured
// notion of "command index" (the file and object backends).
var ErrUnsupported = errors.New("logstore: seek not supported by this backend")

// Store is the interface the connection handler and timestamper consume.
// The handler never branches on concrete backend type.
type Store interface {
	// Append commits b as a single unit, atomic w.r.t. concurrent readers
	// and writers. For ring-backed stores b must be a single newline-
	// terminated command; file/object backends accept any byte slice.
	Append(b []byte) error

	// SnapshotRead copies bytes starting at *cursor into out and advances
	// *cursor by the number of bytes copied. Returns 0, nil at end of log.
	SnapshotRead(cursor *uint64, out []byte) (int, error)

	// SeekTo resolves a (command index, in-command offset) positioning
	// request to an absolute byte offset. Returns ErrUnsupported on
	// backends without structured command boundaries.
	SeekTo(writeCmd, inCmdOffset uint32) (uint64, error)

	// EntryCount and TotalSize back the admin/observability endpoint.
	EntryCount() int
	TotalSize() uint64

	Close() error
}
