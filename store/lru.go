// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package store

import "github.com/praefrontalis/Anfisa-Annotations/blockcodec"

// lruCache is an explicit MRU-first read-block list: a concrete
// slice-backed structure rather than an implicit lock+list. It is not
// safe for concurrent use on its own: callers hold IOController.cacheMu
// across every method call.
type lruCache struct {
	bound   int
	entries []blockcodec.ReadBlock
}

func newLRUCache(bound int) *lruCache {
	if bound <= 0 {
		bound = 1
	}
	return &lruCache{bound: bound}
}

// find scans entries in MRU order for one whose GoodToRead(key) holds,
// promotes it to the front (an explicit remove-then-reinsert, even
// when the hit is already at index 0 -- see DESIGN.md open-question
// 3), and returns it. Returns nil if no entry matches.
func (c *lruCache) find(key []byte) blockcodec.ReadBlock {
	for i, rb := range c.entries {
		if rb.GoodToRead(key) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.entries = append([]blockcodec.ReadBlock{rb}, c.entries...)
			return rb
		}
	}
	return nil
}

// insert adds rb at the front and evicts from the tail until the
// cache is back within bound.
func (c *lruCache) insert(rb blockcodec.ReadBlock) {
	c.entries = append([]blockcodec.ReadBlock{rb}, c.entries...)
	for len(c.entries) > c.bound {
		c.entries = c.entries[:len(c.entries)-1]
	}
}

// len reports the current number of cached blocks.
func (c *lruCache) len() int { return len(c.entries) }
