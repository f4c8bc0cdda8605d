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

// Package kvengine declares the external embedded ordered key-value
// engine interface the storage core consumes. The engine itself --
// column-family open/put/get/forward-seek -- is an external
// collaborator named only by role; this package pins the narrow
// surface the rest of the module is allowed to call.
package kvengine

import "errors"

// ErrNotFound is returned by Conn.SeekData when no key >= seekKey
// exists in the given column (the engine's seek returned (null,
// null)).
var ErrNotFound = errors.New("kvengine: not found")

// ColumnType names one of the two column kinds this system registers.
type ColumnType string

const (
	// ColumnBase carries the `\0`-joined object frames (recenc
	// column 0).
	ColumnBase ColumnType = "base"
	// ColumnStr carries the `\0`-joined interned strings (recenc
	// column 1), when a schema enables it.
	ColumnStr ColumnType = "str"
)

// ColumnHandle is an opaque handle returned by Conn.RegColumn and
// passed back into Put/Get/Seek calls. Its concrete representation is
// owned entirely by the engine implementation.
type ColumnHandle any

// Conn is one open connection (column-family handle + cursor) to the
// embedded ordered KV engine for a single schema/stream.
//
// All methods may block on I/O. Writes come from one goroutine at a
// time, since the write path is single-threaded per stream; GetData
// and SeekData may be called concurrently, because the store package
// builds read blocks outside its cache guard.
type Conn interface {
	// RegColumn registers (or looks up) a column by its full mangled
	// name ("<schema>_base", "<schema>_str") and type.
	RegColumn(fullName string, colType ColumnType) (ColumnHandle, error)

	// PutData writes one row: key maps to one payload per column
	// handle. len(columns) must equal len(payloads).
	PutData(key []byte, columns []ColumnHandle, payloads [][]byte, convBytes bool) error

	// GetData returns one payload per requested column for the exact
	// key, or a nil element for any column with no value at that key.
	GetData(key []byte, columns []ColumnHandle, convBytes bool) ([][]byte, error)

	// SeekData returns the least key >= seekKey in the given column,
	// and its payload. If no such key exists, it returns
	// (nil, nil, ErrNotFound).
	SeekData(seekKey []byte, column ColumnHandle, convBytes bool) (foundKey []byte, payload []byte, err error)

	// Close releases the connection.
	Close() error
}

// Opener opens named, mode-scoped connections to the KV engine.
type Opener interface {
	// Open opens (or creates, in write mode) the named database.
	Open(dbname string, writeMode bool) (Conn, error)
}

// ColumnName mangles a schema name and column type into the engine's
// column-family naming convention: "<schema>_<col-type>".
func ColumnName(schema string, colType ColumnType) string {
	return schema + "_" + string(colType)
}
