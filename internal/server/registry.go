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
	"net"
	"time"

	nlrm "github.com/launix-de/NonLockingReadMap"
)

// connHandle is a registry entry for one live connection: enough to answer
// admin-status queries without ever touching the connection's own goroutine.
type connHandle struct {
	id        uint64
	remote    string
	connected time.Time
}

func (c *connHandle) GetKey() uint64    { return c.id }
func (c *connHandle) ComputeSize() uint { return 1 }

// registry tracks live handlers for the admin/status surface; joining them
// on shutdown goes through Server.wg, not the registry. Reads (GetAll, used
// by adminhttp) must never block registration
// of a new connection, hence NonLockingReadMap rather than a mutex-guarded
// map.
type registry struct {
	m nlrm.NonLockingReadMap[connHandle, uint64]
}

func newRegistry() *registry {
	return &registry{m: nlrm.New[connHandle, uint64]()}
}

func (r *registry) add(id uint64, conn net.Conn) {
	r.m.Set(&connHandle{id: id, remote: conn.RemoteAddr().String(), connected: time.Now()})
}

func (r *registry) remove(id uint64) {
	r.m.Remove(id)
}

func (r *registry) count() int {
	return len(r.m.GetAll())
}

// addrs reports each live connection's remote address, oldest first, for
// the admin/status surface.
func (r *registry) addrs() []string {
	handles := r.m.GetAll()
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = h.remote
	}
	return out
}
