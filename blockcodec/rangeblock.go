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
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/praefrontalis/Anfisa-Annotations/kvengine"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// RangeBlockCodec is the canonical block codec: membership is
// first_key <= key < first_key + Span, with Span encoded in the
// block header (frame 0).
type RangeBlockCodec struct {
	// Span is the address width of every block this codec creates.
	Span uint32
	// Codec encodes/decodes the opaque record payloads stored in
	// each frame.
	Codec recenc.RecordCodec
}

func addr(key []byte) uint32 { return binary.BigEndian.Uint32(key[:4]) }

// CreateWriteBlock implements BlockCodec.
func (c *RangeBlockCodec) CreateWriteBlock(env *recenc.EncodeEnv, firstKey []byte) (WriteBlock, error) {
	if len(firstKey) < 4 {
		return nil, fmt.Errorf("blockcodec: short key (%d bytes)", len(firstKey))
	}
	return &rangeWriteBlock{
		codec:      c,
		env:        env,
		anchorKey:  append([]byte(nil), firstKey[:4]...),
		anchorAddr: addr(firstKey),
		lastAddr:   addr(firstKey),
	}, nil
}

// CreateReadBlock implements BlockCodec. Anchors of sealed blocks are
// at least Span apart, so the only block that can cover queryKey is
// the one at the least anchor >= queryKey-Span+1; the seek starts
// there.
func (c *RangeBlockCodec) CreateReadBlock(conn kvengine.Conn, base, str kvengine.ColumnHandle, factory recenc.DecodeEnvFactory, queryKey []byte) (ReadBlock, error) {
	seekAddr := uint32(0)
	if q := addr(queryKey); q >= c.Span {
		seekAddr = q - c.Span + 1
	}
	seekKey := make([]byte, 4)
	binary.BigEndian.PutUint32(seekKey, seekAddr)
	anchorKey, columns, err := resolve(conn, base, str, seekKey)
	if err != nil {
		return nil, err
	}
	if columns[0] == nil {
		return nil, kvengine.ErrNotFound
	}
	denv, err := factory(columns)
	if err != nil {
		return nil, fmt.Errorf("blockcodec: decoding block at %x: %w", anchorKey, err)
	}
	if denv.Len() == 0 {
		return nil, fmt.Errorf("blockcodec: block at %x has no header frame", anchorKey)
	}
	rawHeader, err := denv.GetValueStr(0)
	if err != nil {
		return nil, err
	}
	hdr, err := decodeHeader([]byte(rawHeader))
	if err != nil {
		return nil, fmt.Errorf("blockcodec: block at %x: %w", anchorKey, err)
	}
	return &rangeReadBlock{
		codec:      c.Codec,
		anchorKey:  anchorKey,
		anchorAddr: addr(anchorKey),
		span:       hdr.span,
		deltas:     hdr.deltas,
		env:        denv,
	}, nil
}

// Close implements BlockCodec; RangeBlockCodec owns no resources of
// its own.
func (c *RangeBlockCodec) Close() error { return nil }

type rangeWriteBlock struct {
	codec      *RangeBlockCodec
	env        *recenc.EncodeEnv
	anchorKey  []byte
	anchorAddr uint32
	lastAddr   uint32
	deltas     []uint32
	closed     bool
}

func (w *rangeWriteBlock) AnchorKey() []byte { return w.anchorKey }

func (w *rangeWriteBlock) GoodToWrite(key []byte) bool {
	a := addr(key)
	return a >= w.anchorAddr && a < w.anchorAddr+w.codec.Span
}

func (w *rangeWriteBlock) AddRecord(key []byte, record recenc.Record, codec recenc.RecordCodec) error {
	a := addr(key)
	if a < w.lastAddr {
		return fmt.Errorf("blockcodec: keys must be non-decreasing within a block (got %#08x after %#08x)", a, w.lastAddr)
	}
	if !w.GoodToWrite(key) {
		return fmt.Errorf("blockcodec: key %#08x outside block span [%#08x,%#08x)", a, w.anchorAddr, w.anchorAddr+w.codec.Span)
	}
	if err := w.env.Put(record, codec); err != nil {
		return err
	}
	w.deltas = append(w.deltas, a-w.anchorAddr)
	w.lastAddr = a
	return nil
}

func (w *rangeWriteBlock) FinishUp(conn kvengine.Conn, base, str kvengine.ColumnHandle) error {
	hdr := &header{version: headerVersion1, span: w.codec.Span, deltas: w.deltas}
	cols := w.env.Result()
	col0 := bytes.Join([][]byte{hdr.encode(), cols[0]}, []byte{0})

	var columns []kvengine.ColumnHandle
	var payloads [][]byte
	if len(cols) == 2 && str != nil {
		columns = []kvengine.ColumnHandle{base, str}
		payloads = [][]byte{col0, cols[1]}
	} else {
		columns = []kvengine.ColumnHandle{base}
		payloads = [][]byte{col0}
	}
	return conn.PutData(w.anchorKey, columns, payloads, false)
}

func (w *rangeWriteBlock) Close() error {
	w.closed = true
	return nil
}

type rangeReadBlock struct {
	codec      recenc.RecordCodec
	anchorKey  []byte
	anchorAddr uint32
	span       uint32
	deltas     []uint32
	env        *recenc.DecodeEnv
}

func (r *rangeReadBlock) AnchorKey() []byte { return r.anchorKey }

func (r *rangeReadBlock) GoodToRead(key []byte) bool {
	a := addr(key)
	return a >= r.anchorAddr && a < r.anchorAddr+r.span
}

// GetRecord implements ReadBlock. Equal keys fuse: if more than one
// frame was written at the same key, all matching frames are decoded
// and returned as a []recenc.Record; a single match returns its
// record directly.
func (r *rangeReadBlock) GetRecord(key []byte, codec recenc.RecordCodec) (recenc.Record, error) {
	want := addr(key) - r.anchorAddr
	// deltas is non-decreasing (AddRecord enforces monotonic keys),
	// so a binary search finds any match in O(log n); matching
	// frames for a fused tie-break are then always contiguous,
	// so widen the [lo,hi) window outward from there.
	lo := sort.Search(len(r.deltas), func(i int) bool { return r.deltas[i] >= want })
	if lo >= len(r.deltas) || r.deltas[lo] != want {
		return nil, nil
	}
	hi := lo + 1
	for hi < len(r.deltas) && r.deltas[hi] == want {
		hi++
	}
	matches := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		matches = append(matches, i)
	}
	if len(matches) == 1 {
		return r.env.Get(1+matches[0], codec)
	}
	out := make([]recenc.Record, len(matches))
	for i, m := range matches {
		rec, err := r.env.Get(1+m, codec)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}
