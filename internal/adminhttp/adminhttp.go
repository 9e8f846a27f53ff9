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

// Package adminhttp is an optional, off-by-default observability endpoint
// adapted from scm/network.go's HTTPServe and websocket upgrade: GET /stats
// for point-in-time counters, GET /tail for a live websocket feed of newly
// committed commands. Trusted-network only; it carries no authentication,
// same as the rest of the listener.
package adminhttp

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StatsProvider supplies the counters served by GET /stats.
type StatsProvider interface {
	EntryCount() int
	TotalSize() uint64
	ConnectionCount() int
	Connections() []string
}

// Server serves /stats and /tail on its own address, independent of the
// append-log listener.
type Server struct {
	stats StatsProvider
	http  *http.Server

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

type subscriber struct {
	ws    *websocket.Conn
	mu    sync.Mutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// New builds a Server bound to addr. Call Serve to start it.
func New(addr string, stats StatsProvider) *Server {
	s := &Server{stats: stats, subs: make(map[*subscriber]struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/tail", s.handleTail)
	s.http = &http.Server{
		Addr:           addr,
		Handler:        mux,
		ReadTimeout:    300 * time.Second,
		WriteTimeout:   300 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Serve blocks until Shutdown is called.
func (s *Server) Serve() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	s.http.Close()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries":         s.stats.EntryCount(),
		"bytes":           s.stats.TotalSize(),
		"connections":     s.stats.ConnectionCount(),
		"connectionAddrs": s.stats.Connections(),
	})
}

func (s *Server) handleTail(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{ws: ws}
	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	defer func() {
		s.subsMu.Lock()
		delete(s.subs, sub)
		s.subsMu.Unlock()
		ws.Close()
	}()

	// this endpoint is push-only; drain and discard anything the client
	// sends so the read side notices a close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a newly committed command to every live /tail subscriber.
// Called from the append path. WriteMessage runs without a write deadline,
// so a subscriber that stops reading can hold up the caller until its
// connection fails; a send error is ignored here, and the subscriber is
// dropped when its own read loop ends. Safe to call on a nil Server,
// so callers don't need their own "is admin enabled" check.
func (s *Server) Broadcast(line []byte) {
	if s == nil {
		return
	}
	s.subsMu.Lock()
	targets := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		targets = append(targets, sub)
	}
	s.subsMu.Unlock()

	for _, sub := range targets {
		sub.mu.Lock()
		sub.ws.WriteMessage(websocket.TextMessage, line)
		sub.mu.Unlock()
	}
}
