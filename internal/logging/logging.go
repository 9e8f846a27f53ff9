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

// Package logging is the thin stderr/syslog wrapper the rest of the tree
// calls into, matching the teacher's own PrintError/PrintOut texture rather
// than pulling in a structured logging library the teacher never uses.
package logging

import (
	"fmt"
	"log"
	"log/syslog"
	"os"
	"sync/atomic"
	"time"
)

var out = log.New(os.Stderr, "", log.LstdFlags)

// UseSyslog redirects output to syslog, used once the process has
// daemonized (spec.md §4.6).
func UseSyslog(tag string) error {
	w, err := syslog.New(syslog.LOG_INFO, tag)
	if err != nil {
		return fmt.Errorf("logging: open syslog: %w", err)
	}
	out = log.New(w, "", 0)
	return nil
}

func Info(format string, a ...any) {
	out.Printf("INFO "+format, a...)
}

func PrintError(format string, a ...any) {
	out.Printf("ERROR "+format, a...)
}

// connIDCounter, seeded from time.Now, gives uint64 connection IDs without
// risking a crypto/rand entropy stall on startup, same rationale as the
// teacher's storage/fast_uuid.go.
var connIDCounter uint64 = uint64(time.Now().UnixNano())

// NewConnID returns a process-unique, low-entropy connection identifier
// for tagging log lines across a connection's lifetime.
func NewConnID() uint64 {
	return atomic.AddUint64(&connIDCounter, 1)
}
