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

// Package recenc implements the record encode/decode environment: a
// one- or two-column byte layout (an object-frame column plus an
// optional interned-string column) used to pack many records into a
// single block payload.
package recenc

import "encoding/json"

// Record is an opaque structured value produced and consumed by a
// RecordCodec. The block store never inspects its contents directly.
type Record = any

// RecordCodec converts between a Record and the opaque frame bytes
// stored in column 0. Frames must never contain a raw NUL byte: NUL
// is the reserved separator between frames (see EncodeEnv.Result).
type RecordCodec interface {
	Encode(Record) ([]byte, error)
	Decode([]byte) (Record, error)
}

// JSONCodec is the reference RecordCodec: it marshals records as
// JSON. JSON text never contains a raw NUL byte for any value
// encoding/json can produce, so it satisfies the frame invariant
// without extra escaping.
type JSONCodec struct{}

// Encode implements RecordCodec.
func (JSONCodec) Encode(r Record) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Decode implements RecordCodec. An empty frame decodes to a nil
// record, per the DecodeEnv.Get contract.
func (JSONCodec) Decode(b []byte) (Record, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var r any
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return r, nil
}
