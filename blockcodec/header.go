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

package blockcodec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// header is the content of frame 0 of every sealed range block: the
// block's span plus one anchor-relative key delta per subsequent
// frame, so a ReadBlock can map a query key back to a frame index
// without any further KV traffic. The binary layout is stored as hex
// text, since a frame must not contain a raw NUL byte.
type header struct {
	version uint8
	span    uint32
	deltas  []uint32 // deltas[i] = addr(key_i) - addr(anchorKey)
}

const headerVersion1 = 1

// encode serializes the header as:
//
//	1 byte   version
//	4 bytes  span (big-endian uint32)
//	4 bytes  count (big-endian uint32)
//	4*count  deltas (big-endian uint32, each)
//
// and returns that byte layout hex-encoded.
func (h *header) encode() []byte {
	buf := make([]byte, 1+4+4+4*len(h.deltas))
	buf[0] = h.version
	binary.BigEndian.PutUint32(buf[1:5], h.span)
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(h.deltas)))
	off := 9
	for _, d := range h.deltas {
		binary.BigEndian.PutUint32(buf[off:off+4], d)
		off += 4
	}
	return []byte(hex.EncodeToString(buf))
}

func decodeHeader(text []byte) (*header, error) {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return nil, fmt.Errorf("blockcodec: malformed block header: %w", err)
	}
	if len(b) < 9 {
		return nil, fmt.Errorf("blockcodec: short block header (%d bytes)", len(b))
	}
	h := &header{
		version: b[0],
		span:    binary.BigEndian.Uint32(b[1:5]),
	}
	if h.version != headerVersion1 {
		return nil, fmt.Errorf("blockcodec: unsupported block header version %d", h.version)
	}
	count := binary.BigEndian.Uint32(b[5:9])
	want := 9 + 4*int(count)
	if len(b) != want {
		return nil, fmt.Errorf("blockcodec: header declares %d deltas but payload is %d bytes, want %d", count, len(b), want)
	}
	h.deltas = make([]uint32, count)
	off := 9
	for i := range h.deltas {
		h.deltas[i] = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}
	return h, nil
}
