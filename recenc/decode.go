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

package recenc

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrNoStringColumn is returned by DecodeEnv.GetStr when the payload
// the environment was built from had no second column.
var ErrNoStringColumn = errors.New("recenc: no string column present")

// DecodeEnv is the read-side counterpart of EncodeEnv: it splits a
// one- or two-element column payload back into frames and, if
// present, an interned string table.
type DecodeEnv struct {
	frames  [][]byte
	strings [][]byte
}

// NewDecodeEnv builds a DecodeEnv from a column payload as produced
// by EncodeEnv.Result: columns[0] is split on NUL into frames,
// columns[1] (if present) is split on NUL into the string table.
func NewDecodeEnv(columns [][]byte) (*DecodeEnv, error) {
	if len(columns) == 0 || len(columns) > 2 {
		return nil, fmt.Errorf("recenc: expected 1 or 2 columns, got %d", len(columns))
	}
	d := &DecodeEnv{}
	if len(columns[0]) > 0 {
		d.frames = bytes.Split(columns[0], []byte{0})
	}
	if len(columns) == 2 && len(columns[1]) > 0 {
		d.strings = bytes.Split(columns[1], []byte{0})
	}
	return d, nil
}

// Len returns the number of frames in the object column.
func (d *DecodeEnv) Len() int { return len(d.frames) }

// GetStr returns the interned string at index.
func (d *DecodeEnv) GetStr(index int) (string, error) {
	if d.strings == nil {
		return "", ErrNoStringColumn
	}
	if index < 0 || index >= len(d.strings) {
		return "", fmt.Errorf("recenc: string index %d out of range [0,%d)", index, len(d.strings))
	}
	return string(d.strings[index]), nil
}

// GetValueStr returns the raw frame text at index, without decoding
// it through a RecordCodec.
func (d *DecodeEnv) GetValueStr(index int) (string, error) {
	if index < 0 || index >= len(d.frames) {
		return "", fmt.Errorf("recenc: frame index %d out of range [0,%d)", index, len(d.frames))
	}
	return string(d.frames[index]), nil
}

// Get decodes the frame at index using codec. An empty frame decodes
// to a nil record.
func (d *DecodeEnv) Get(index int, codec RecordCodec) (Record, error) {
	if index < 0 || index >= len(d.frames) {
		return nil, fmt.Errorf("recenc: frame index %d out of range [0,%d)", index, len(d.frames))
	}
	return codec.Decode(d.frames[index])
}

// DecodeEnvFactory constructs a DecodeEnv from a column payload. It
// exists so block codecs can be handed a constructor rather than a
// pre-built instance: the caller doesn't know the column payload
// until it performs the KV seek, so the factory is threaded through
// and invoked once the payload is available.
type DecodeEnvFactory func(columns [][]byte) (*DecodeEnv, error)

// DefaultDecodeEnvFactory is NewDecodeEnv adapted to the
// DecodeEnvFactory signature.
func DefaultDecodeEnvFactory(columns [][]byte) (*DecodeEnv, error) {
	return NewDecodeEnv(columns)
}
