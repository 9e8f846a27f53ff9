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

package logstore

import "github.com/google/btree"

// cmdOffset records where the k-th committed command begins in an unbounded
// backend (file, object storage) that has no ring slots to index into.
type cmdOffset struct {
	seq    uint64
	offset uint64
}

func (a cmdOffset) Less(b btree.Item) bool {
	return a.seq < b.(cmdOffset).seq
}

// cmdIndex is the append-only, growing-backend counterpart of the ring's
// slot array: a btree of (sequence number -> starting byte offset).
type cmdIndex struct {
	tree *btree.BTree
	next uint64
}

func newCmdIndex() *cmdIndex {
	return &cmdIndex{tree: btree.New(32)}
}

// record appends the next command's starting offset and returns its
// sequence number.
func (c *cmdIndex) record(offset uint64) uint64 {
	seq := c.next
	c.next++
	c.tree.ReplaceOrInsert(cmdOffset{seq: seq, offset: offset})
	return seq
}

// count returns the number of indexed commands.
func (c *cmdIndex) count() uint64 {
	return c.next
}
