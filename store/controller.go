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

// Package store implements IOController, the owner of one storage
// stream: write-block lifecycle, read-block cache, column
// registration, and descriptor metadata.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/praefrontalis/Anfisa-Annotations/blockcodec"
	"github.com/praefrontalis/Anfisa-Annotations/genome"
	"github.com/praefrontalis/Anfisa-Annotations/kvengine"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// ErrNotWriteMode is returned by PutRecord on an IOController opened
// read-only.
var ErrNotWriteMode = errors.New("store: schema not opened in write mode")

// ErrWriterBusy is returned by PutRecord if a call is already in
// flight on this IOController -- the write path is single-threaded
// and this flag turns a silent race into an error rather than letting
// two calls race on the same write block.
var ErrWriterBusy = errors.New("store: concurrent putRecord on one IOController")

// DefaultCacheSize is the read-block cache bound used when a
// Descriptor doesn't specify one.
const DefaultCacheSize = 3

// Logger is the nil-safe logging interface used throughout this
// module, matching tenant/dcache.Logger in shape.
type Logger interface {
	Printf(f string, args ...any)
}

// Descriptor is the resolved IO descriptor: every option a schema was
// opened with, surfaced for logging and for the fatal-on-unused-key
// validation performed by the config package before an IOController is
// ever constructed.
type Descriptor struct {
	Schema    string
	WriteMode bool
	WithStr   bool
	CacheSize int
	Build     string
	BlockType string
	// Options carries block-codec-variant-specific settings (e.g.
	// "span", "compress") that the chosen BlockCodec was already
	// constructed from; it is retained here only for Descriptor
	// output / operational logging, not re-consumed by IOController
	// itself.
	Options map[string]any
}

// IOController owns one open storage stream: schema handle,
// descriptor, key codec, KV-engine connection, registered columns,
// block codec, at most one open write block, and the read-block
// cache with its guard.
type IOController struct {
	Logger Logger

	desc      Descriptor
	keyCodec  *genome.KeyCodec
	conn      kvengine.Conn
	base, str kvengine.ColumnHandle
	codec     blockcodec.BlockCodec
	factory   recenc.DecodeEnvFactory

	sessionID uuid.UUID

	writeMu sync.Mutex
	writing bool
	wb      blockcodec.WriteBlock

	cacheMu sync.Mutex
	cache   *lruCache
}

// Open opens a KV connection for desc.Schema, registers its columns,
// and returns a ready IOController. factory builds a DecodeEnv from
// a read block's raw column payloads; pass recenc.DefaultDecodeEnvFactory
// unless the chosen BlockCodec requires a wrapped one (as
// blockcodec.CompressedRangeBlockCodec does internally).
func Open(opener kvengine.Opener, desc Descriptor, keyCodec *genome.KeyCodec, codec blockcodec.BlockCodec, factory recenc.DecodeEnvFactory, logger Logger) (*IOController, error) {
	conn, err := opener.Open(desc.Schema, desc.WriteMode)
	if err != nil {
		return nil, fmt.Errorf("store: opening schema %q: %w", desc.Schema, err)
	}
	base, err := conn.RegColumn(kvengine.ColumnName(desc.Schema, kvengine.ColumnBase), kvengine.ColumnBase)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: registering base column: %w", err)
	}
	var str kvengine.ColumnHandle
	if desc.WithStr {
		str, err = conn.RegColumn(kvengine.ColumnName(desc.Schema, kvengine.ColumnStr), kvengine.ColumnStr)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: registering str column: %w", err)
		}
	}
	cacheSize := desc.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	sessionID := uuid.New()
	ctrl := &IOController{
		Logger:    logger,
		desc:      desc,
		keyCodec:  keyCodec,
		conn:      conn,
		base:      base,
		str:       str,
		codec:     codec,
		factory:   factory,
		sessionID: sessionID,
		cache:     newLRUCache(cacheSize),
	}
	ctrl.logf("store: opened schema %q session=%s write=%v", desc.Schema, sessionID, desc.WriteMode)
	return ctrl, nil
}

func (c *IOController) logf(f string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(f, args...)
	}
}

// SessionID returns the uuid.UUID tagging this controller's open
// session, included in every log line for operational correlation.
func (c *IOController) SessionID() uuid.UUID { return c.sessionID }

// Descriptor returns the resolved IO descriptor this controller was
// opened with, with SessionID folded in for observability.
func (c *IOController) Descriptor() Descriptor {
	d := c.desc
	return d
}

// PutRecord writes one record: reject unless in write mode; seal the
// open write block if key no longer belongs to it; create a fresh
// write block anchored at key if none is open; delegate to AddRecord.
func (c *IOController) PutRecord(key []byte, record recenc.Record, codec recenc.RecordCodec) error {
	if !c.desc.WriteMode {
		return ErrNotWriteMode
	}
	c.writeMu.Lock()
	if c.writing {
		c.writeMu.Unlock()
		return ErrWriterBusy
	}
	c.writing = true
	c.writeMu.Unlock()
	defer func() {
		c.writeMu.Lock()
		c.writing = false
		c.writeMu.Unlock()
	}()

	if c.wb != nil && !c.wb.GoodToWrite(key) {
		if err := c.sealWriteBlock(); err != nil {
			return err
		}
	}
	if c.wb == nil {
		env := recenc.NewEncodeEnv(c.desc.WithStr)
		wb, err := c.codec.CreateWriteBlock(env, key)
		if err != nil {
			return fmt.Errorf("store: creating write block at %x: %w", key, err)
		}
		c.wb = wb
	}
	if err := c.wb.AddRecord(key, record, codec); err != nil {
		return fmt.Errorf("store: adding record at %x: %w", key, err)
	}
	return nil
}

func (c *IOController) sealWriteBlock() error {
	if c.wb == nil {
		return nil
	}
	if err := c.wb.FinishUp(c.conn, c.base, c.str); err != nil {
		return fmt.Errorf("store: sealing write block at %x: %w", c.wb.AnchorKey(), err)
	}
	err := c.wb.Close()
	c.wb = nil
	return err
}

// Flush seals any open write block.
func (c *IOController) Flush() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sealWriteBlock()
}

// Close flushes, closes the block codec, and closes the KV
// connection. Not reentrant; assumes no other call is in flight.
func (c *IOController) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if err := c.codec.Close(); err != nil {
		return fmt.Errorf("store: closing block codec: %w", err)
	}
	return c.conn.Close()
}

// GetRecord reads one record: scan the MRU cache under the guard; on
// hit, promote and use it; on miss, construct a fresh read block
// outside the guard (a KV seek), then insert it under the guard and
// evict down to bound.
func (c *IOController) GetRecord(key []byte, codec recenc.RecordCodec) (recenc.Record, error) {
	c.cacheMu.Lock()
	rb := c.cache.find(key)
	c.cacheMu.Unlock()

	if rb == nil {
		var err error
		rb, err = c.codec.CreateReadBlock(c.conn, c.base, c.str, c.factory, key)
		if err != nil {
			return nil, err
		}
		c.cacheMu.Lock()
		c.cache.insert(rb)
		c.cacheMu.Unlock()
	}
	return rb.GetRecord(key, codec)
}

// TransformRecord encodes record with codec and immediately decodes
// the result, without touching the KV engine -- a round-trip sanity
// helper.
func (c *IOController) TransformRecord(record recenc.Record, codec recenc.RecordCodec) (recenc.Record, error) {
	frame, err := codec.Encode(record)
	if err != nil {
		return nil, fmt.Errorf("store: transformRecord encode: %w", err)
	}
	out, err := codec.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("store: transformRecord decode: %w", err)
	}
	return out, nil
}

// CacheLen reports the current number of cached read blocks, for
// tests and telemetry.
func (c *IOController) CacheLen() int {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.cache.len()
}

// KeyCodec returns the genome.KeyCodec this controller was opened
// with.
func (c *IOController) KeyCodec() *genome.KeyCodec { return c.keyCodec }
