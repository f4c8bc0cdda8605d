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

	"golang.org/x/exp/maps"
)

// ErrStringColumnDisabled is returned by AddStr when the EncodeEnv
// was constructed with withStr = false.
var ErrStringColumnDisabled = errors.New("recenc: string column disabled")

// ErrNulInFrame is returned when a frame or interned string contains
// a raw NUL byte, which is reserved as the inter-frame separator.
var ErrNulInFrame = errors.New("recenc: NUL byte not allowed in frame")

// EncodeEnv frames one or more records into the two-column layout:
// column 0 holds `\0`-joined object frames, column 1 (if enabled)
// holds `\0`-joined interned strings referenced by index from
// column 0.
//
// EncodeEnv is single-owner: it is not safe for concurrent use.
type EncodeEnv struct {
	withStr bool

	frames  [][]byte
	strings []string
	toIndex map[string]int // only populated lazily, mirrors ion.Symtab
}

// NewEncodeEnv returns an empty EncodeEnv. If withStr is false,
// AddStr always fails with ErrStringColumnDisabled and Result never
// produces a second column.
func NewEncodeEnv(withStr bool) *EncodeEnv {
	return &EncodeEnv{withStr: withStr}
}

// AddStr interns text into the string column and returns its index.
//
// If repeatable is true and text was already interned via a prior
// repeatable AddStr call, the cached index is returned and no new
// entry is appended -- this is the string-deduplication dictionary
// named in the data model. If repeatable is false, a fresh entry is
// always appended (and never cached for future lookups), which is
// useful for strings that are unlikely to repeat and not worth the
// dictionary lookup overhead.
func (e *EncodeEnv) AddStr(text string, repeatable bool) (int, error) {
	if !e.withStr {
		return 0, ErrStringColumnDisabled
	}
	if bytes.IndexByte([]byte(text), 0) >= 0 {
		return 0, ErrNulInFrame
	}
	if repeatable {
		if e.toIndex == nil {
			e.toIndex = make(map[string]int)
		} else if idx, ok := e.toIndex[text]; ok {
			return idx, nil
		}
	}
	idx := len(e.strings)
	e.strings = append(e.strings, text)
	if repeatable {
		e.toIndex[text] = idx
	}
	return idx, nil
}

// Put encodes record with codec and appends the resulting frame to
// the object column.
func (e *EncodeEnv) Put(record Record, codec RecordCodec) error {
	frame, err := codec.Encode(record)
	if err != nil {
		return fmt.Errorf("recenc: encoding record: %w", err)
	}
	return e.PutValueStr(string(frame))
}

// PutValueStr appends s directly as a frame, for codecs that have
// already produced serialized frame text.
func (e *EncodeEnv) PutValueStr(s string) error {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return ErrNulInFrame
	}
	e.frames = append(e.frames, []byte(s))
	return nil
}

// Len returns the number of frames added so far.
func (e *EncodeEnv) Len() int { return len(e.frames) }

// Result returns the encoded column payloads: one element if the
// string column is disabled, two elements otherwise (the second is
// empty when no string was added).
func (e *EncodeEnv) Result() [][]byte {
	col0 := bytes.Join(e.frames, []byte{0})
	if !e.withStr {
		return [][]byte{col0}
	}
	strs := make([][]byte, len(e.strings))
	for i, s := range e.strings {
		strs[i] = []byte(s)
	}
	col1 := bytes.Join(strs, []byte{0})
	return [][]byte{col0, col1}
}

// Reset clears the environment so it can be reused for a new block,
// retaining underlying storage to avoid reallocation.
func (e *EncodeEnv) Reset() {
	e.frames = e.frames[:0]
	e.strings = e.strings[:0]
	if e.toIndex != nil {
		maps.Clear(e.toIndex)
	}
}
