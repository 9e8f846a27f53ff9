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

// Package server is the acceptor, worker pool, and per-connection protocol
// state machine for the append-log TCP listener.
package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/aesdsocket-go/aesdsocket/internal/adminhttp"
	"github.com/aesdsocket-go/aesdsocket/internal/audit"
	"github.com/aesdsocket-go/aesdsocket/internal/logging"
	"github.com/aesdsocket-go/aesdsocket/internal/logstore"
)

// Server owns the listener, the live-connection registry, and the store
// every handler appends to and reads from.
type Server struct {
	store    logstore.Store
	listener net.Listener
	auditLog *audit.Sink
	admin    *adminhttp.Server

	shuttingDown atomic.Bool
	registry     *registry
	wg           sync.WaitGroup
}

// New does not open a socket yet; call Listen to bind. auditLog may be nil
// (audit sink disabled).
func New(store logstore.Store, auditLog *audit.Sink) *Server {
	return &Server{store: store, auditLog: auditLog, registry: newRegistry()}
}

// SetAdmin wires the admin/observability endpoint in after construction,
// since adminhttp.New itself needs this Server as its StatsProvider.
func (s *Server) SetAdmin(admin *adminhttp.Server) {
	s.admin = admin
}

// Listen binds addr ("host:port" or ":port") with the conventional TCP
// accept backlog, mirroring net.Listen's own default.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr reports the bound address, useful when the configured port was ":0".
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount reports the number of currently live connections.
func (s *Server) ConnectionCount() int {
	return s.registry.count()
}

// Connections reports each live connection's remote address.
func (s *Server) Connections() []string {
	return s.registry.addrs()
}

// Serve accepts connections until Shutdown closes the listener. It returns
// once the accept loop has exited; callers still need Wait to join handlers.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shuttingDown.Load() {
				return
			}
			logging.PrintError("accept: %v", err)
			continue
		}
		id := logging.NewConnID()
		s.registry.add(id, conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.registry.remove(id)
			newHandler(id, conn, s.store, s.auditLog, s.admin).run()
		}()
	}
}

// Shutdown flips the shutdown flag and closes the listener, which unblocks
// Accept with an error Serve recognizes as a clean exit (spec.md §4.6).
func (s *Server) Shutdown() {
	s.shuttingDown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
}

// Wait joins every in-flight connection handler.
func (s *Server) Wait() {
	s.wg.Wait()
}
