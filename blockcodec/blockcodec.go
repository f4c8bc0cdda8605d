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

// Package blockcodec implements the pluggable block-boundary policy
// that groups adjacent records into a single KV row, plus the
// canonical range-block implementation.
package blockcodec

import (
	"fmt"

	"github.com/praefrontalis/Anfisa-Annotations/kvengine"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// WriteBlock accumulates records destined for a single KV row.
type WriteBlock interface {
	// AnchorKey is the first key added to this block.
	AnchorKey() []byte
	// GoodToWrite reports whether key may still be added to this
	// block (the membership policy). It is monotone in key order.
	GoodToWrite(key []byte) bool
	// AddRecord encodes record via codec and appends it to the
	// block. The caller must have already checked GoodToWrite.
	AddRecord(key []byte, record recenc.Record, codec recenc.RecordCodec) error
	// FinishUp seals the block and writes its one KV row, keyed by
	// AnchorKey, to conn using the given column handles (str may be
	// nil if the schema has no string column).
	FinishUp(conn kvengine.Conn, base, str kvengine.ColumnHandle) error
	// Close releases any resources owned by the block. Safe to call
	// after FinishUp or on abandonment.
	Close() error
}

// ReadBlock is a decoded, immutable view of one sealed block.
type ReadBlock interface {
	// AnchorKey is the key this block was seeked to and stored under.
	AnchorKey() []byte
	// GoodToRead reports whether key falls within this block's range.
	GoodToRead(key []byte) bool
	// GetRecord returns the record stored at key, or (nil, nil) if
	// key isn't present in this block.
	GetRecord(key []byte, codec recenc.RecordCodec) (recenc.Record, error)
}

// BlockCodec is the pluggable policy identified by a "block-type"
// descriptor option.
type BlockCodec interface {
	// CreateWriteBlock starts a new write block anchored at firstKey,
	// using env (already constructed with the schema's with-str
	// setting) to frame records.
	CreateWriteBlock(env *recenc.EncodeEnv, firstKey []byte) (WriteBlock, error)

	// CreateReadBlock forward-seeks conn's base column for the block
	// that can hold queryKey (RangeBlockCodec seeks from the lowest
	// anchor whose span can cover queryKey), pulls the matching string
	// column payload if present, and wraps the result for point
	// lookups. It returns kvengine.ErrNotFound if the seek finds no key.
	CreateReadBlock(conn kvengine.Conn, base, str kvengine.ColumnHandle, factory recenc.DecodeEnvFactory, queryKey []byte) (ReadBlock, error)

	// Close releases any resources owned by the codec itself (not by
	// individual blocks).
	Close() error
}

// resolve seeks queryKey in base, then -- if str is non-nil -- re-
// fetches both columns at the resolved anchor key so the two
// payloads are read consistently.
func resolve(conn kvengine.Conn, base, str kvengine.ColumnHandle, queryKey []byte) (anchor []byte, columns [][]byte, err error) {
	anchor, basePayload, err := conn.SeekData(queryKey, base, false)
	if err != nil {
		return nil, nil, err
	}
	if str == nil {
		return anchor, [][]byte{basePayload}, nil
	}
	payloads, err := conn.GetData(anchor, []kvengine.ColumnHandle{base, str}, false)
	if err != nil {
		return nil, nil, fmt.Errorf("blockcodec: fetching string column: %w", err)
	}
	return anchor, payloads, nil
}
