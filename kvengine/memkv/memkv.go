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

// Package memkv is an in-memory stand-in for the embedded ordered KV
// engine kvengine.Conn abstracts over. It lets store, blockcodec and
// genome be exercised end-to-end in tests, the way a real engine
// (RocksDB, Pebble, mdbx, ...) would, and it is the backing store the
// anfisa-ingest command opens.
package memkv

import (
	"fmt"
	"sort"
	"sync"

	"github.com/praefrontalis/Anfisa-Annotations/kvengine"
)

// Opener is a kvengine.Opener backed by per-database in-process
// stores; every Open call for the same dbname shares the same
// underlying data.
type Opener struct {
	mu  sync.Mutex
	dbs map[string]*db
}

// NewOpener returns a ready-to-use Opener.
func NewOpener() *Opener {
	return &Opener{dbs: make(map[string]*db)}
}

func (o *Opener) Open(dbname string, writeMode bool) (kvengine.Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	d, ok := o.dbs[dbname]
	if !ok {
		d = newDB()
		o.dbs[dbname] = d
	}
	return &conn{db: d, writeMode: writeMode}, nil
}

type column struct {
	mu   sync.RWMutex
	keys [][]byte // sorted, unique
	vals [][]byte // parallel to keys
}

func (c *column) put(key, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := sort.Search(len(c.keys), func(i int) bool {
		return string(c.keys[i]) >= string(key)
	})
	if i < len(c.keys) && string(c.keys[i]) == string(key) {
		c.vals[i] = val
		return
	}
	c.keys = append(c.keys, nil)
	c.vals = append(c.vals, nil)
	copy(c.keys[i+1:], c.keys[i:])
	copy(c.vals[i+1:], c.vals[i:])
	c.keys[i] = key
	c.vals[i] = val
}

func (c *column) get(key []byte) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.Search(len(c.keys), func(i int) bool {
		return string(c.keys[i]) >= string(key)
	})
	if i < len(c.keys) && string(c.keys[i]) == string(key) {
		return c.vals[i]
	}
	return nil
}

// seek returns the least key >= seekKey, and its value.
func (c *column) seek(seekKey []byte) (key, val []byte, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.Search(len(c.keys), func(i int) bool {
		return string(c.keys[i]) >= string(seekKey)
	})
	if i < len(c.keys) {
		return c.keys[i], c.vals[i], true
	}
	return nil, nil, false
}

type db struct {
	mu      sync.Mutex
	columns map[string]*column
}

func newDB() *db {
	return &db{columns: make(map[string]*column)}
}

func (d *db) column(name string) *column {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.columns[name]
	if !ok {
		c = &column{}
		d.columns[name] = c
	}
	return c
}

type conn struct {
	db        *db
	writeMode bool
}

func (c *conn) RegColumn(fullName string, colType kvengine.ColumnType) (kvengine.ColumnHandle, error) {
	return c.db.column(fullName), nil
}

func (c *conn) PutData(key []byte, columns []kvengine.ColumnHandle, payloads [][]byte, convBytes bool) error {
	if !c.writeMode {
		return fmt.Errorf("memkv: PutData on read-only connection")
	}
	if len(columns) != len(payloads) {
		return fmt.Errorf("memkv: %d columns but %d payloads", len(columns), len(payloads))
	}
	keyCopy := append([]byte(nil), key...)
	for i, ch := range columns {
		col := ch.(*column)
		var v []byte
		if payloads[i] != nil {
			v = append([]byte(nil), payloads[i]...)
		}
		col.put(keyCopy, v)
	}
	return nil
}

func (c *conn) GetData(key []byte, columns []kvengine.ColumnHandle, convBytes bool) ([][]byte, error) {
	out := make([][]byte, len(columns))
	for i, ch := range columns {
		col := ch.(*column)
		out[i] = col.get(key)
	}
	return out, nil
}

func (c *conn) SeekData(seekKey []byte, ch kvengine.ColumnHandle, convBytes bool) ([]byte, []byte, error) {
	col := ch.(*column)
	k, v, ok := col.seek(seekKey)
	if !ok {
		return nil, nil, kvengine.ErrNotFound
	}
	return k, v, nil
}

func (c *conn) Close() error { return nil }
