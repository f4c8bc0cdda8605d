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
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/praefrontalis/Anfisa-Annotations/kvengine"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// CompressedRangeBlockCodec wraps RangeBlockCodec, compressing both
// column payloads with zstd before they are handed to the
// IOController. This is the "compress: true" block-type variant,
// mirroring blockfmt's own payload compression (which also wraps
// klauspost/compress around block payloads).
type CompressedRangeBlockCodec struct {
	RangeBlockCodec

	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
	initErr error
}

func (c *CompressedRangeBlockCodec) encoder() (*zstd.Encoder, error) {
	c.encOnce.Do(func() {
		c.enc, c.initErr = zstd.NewWriter(nil)
	})
	return c.enc, c.initErr
}

func (c *CompressedRangeBlockCodec) decoder() (*zstd.Decoder, error) {
	c.decOnce.Do(func() {
		c.dec, c.initErr = zstd.NewReader(nil)
	})
	return c.dec, c.initErr
}

// CreateWriteBlock implements BlockCodec; it delegates framing to the
// embedded RangeBlockCodec and compresses the result at FinishUp.
func (c *CompressedRangeBlockCodec) CreateWriteBlock(env *recenc.EncodeEnv, firstKey []byte) (WriteBlock, error) {
	inner, err := c.RangeBlockCodec.CreateWriteBlock(env, firstKey)
	if err != nil {
		return nil, err
	}
	enc, err := c.encoder()
	if err != nil {
		return nil, fmt.Errorf("blockcodec: starting zstd encoder: %w", err)
	}
	return &compressedWriteBlock{WriteBlock: inner, enc: enc}, nil
}

// CreateReadBlock implements BlockCodec; it decompresses each column
// payload before handing it to the inner range-block decoder.
func (c *CompressedRangeBlockCodec) CreateReadBlock(conn kvengine.Conn, base, str kvengine.ColumnHandle, factory recenc.DecodeEnvFactory, queryKey []byte) (ReadBlock, error) {
	dec, err := c.decoder()
	if err != nil {
		return nil, fmt.Errorf("blockcodec: starting zstd decoder: %w", err)
	}
	wrapped := func(columns [][]byte) (*recenc.DecodeEnv, error) {
		out := make([][]byte, len(columns))
		for i, col := range columns {
			if col == nil {
				continue
			}
			plain, err := dec.DecodeAll(col, nil)
			if err != nil {
				return nil, fmt.Errorf("blockcodec: decompressing column %d: %w", i, err)
			}
			out[i] = plain
		}
		return factory(out)
	}
	return c.RangeBlockCodec.CreateReadBlock(conn, base, str, wrapped, queryKey)
}

type compressedWriteBlock struct {
	WriteBlock
	enc *zstd.Encoder
}

func (w *compressedWriteBlock) FinishUp(conn kvengine.Conn, base, str kvengine.ColumnHandle) error {
	return w.WriteBlock.FinishUp(&compressingConn{Conn: conn, enc: w.enc}, base, str)
}

// compressingConn wraps a kvengine.Conn so PutData compresses each
// payload with zstd before it reaches the underlying engine.
type compressingConn struct {
	kvengine.Conn
	enc *zstd.Encoder
}

func (c *compressingConn) PutData(key []byte, columns []kvengine.ColumnHandle, payloads [][]byte, convBytes bool) error {
	compressed := make([][]byte, len(payloads))
	for i, p := range payloads {
		compressed[i] = c.enc.EncodeAll(p, nil)
	}
	return c.Conn.PutData(key, columns, compressed, convBytes)
}
