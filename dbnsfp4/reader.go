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

package dbnsfp4

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/praefrontalis/Anfisa-Annotations/genome"
	"github.com/praefrontalis/Anfisa-Annotations/internal/tsv"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// Logger is the nil-safe logging interface used across this module.
type Logger interface {
	Printf(f string, args ...any)
}

// Reader streams grouped Records out of one DBNSFP4 shard file,
// implementing merge.SubReader so it can be fed directly into a
// merge.JoinedReader alongside readers for other shards.
//
// Reader is single-owner and not safe for concurrent use.
type Reader struct {
	Logger Logger

	src      io.Reader
	layout   *FieldLayout
	keyCodec *genome.KeyCodec
	chopper  tsv.Chopper

	haveBuffered bool
	bufKey       RecordKey
	bufVariants  []Variant
	lastIdentity []Value

	shortRows int
}

// NewReader reads and validates src's header line against schema,
// returning a Reader ready to stream grouped records.
func NewReader(src io.Reader, schema []FieldSpec, keyCodec *genome.KeyCodec, logger Logger) (*Reader, error) {
	r := &Reader{Logger: logger, src: src, keyCodec: keyCodec}
	header, err := r.chopper.Next(src)
	if err != nil {
		return nil, fmt.Errorf("dbnsfp4: reading header: %w", err)
	}
	// DBNSFP4 shard headers conventionally begin with "#"; strip it
	// before resolving chr*/pos*/declared-field names.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "#")
	}
	layout, err := NewFieldLayout(header, schema)
	if err != nil {
		r.logf("dbnsfp4: %v", err)
		return nil, err
	}
	r.layout = layout
	return r, nil
}

func (r *Reader) logf(f string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(f, args...)
	}
}

// ShortRows reports the number of rows skipped so far: rows with
// fewer columns than the layout requires, a non-numeric pos, or a
// cell that fails to parse as its declared type.
func (r *Reader) ShortRows() int { return r.shortRows }

// Next implements merge.SubReader: it returns the next completed
// (chrom, pos) group as a single-element record list, keyed by its
// genome.KeyCodec-encoded address. Groups are completed only once a
// later row's key differs, or at EOF.
func (r *Reader) Next() ([]byte, []recenc.Record, error) {
	for {
		fields, err := r.chopper.Next(r.src)
		if err == io.EOF {
			return r.flushBuffered()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("dbnsfp4: reading row: %w", err)
		}
		if len(fields) < 2 {
			r.shortRows++
			r.logf("dbnsfp4: skipping short row (%d fields)", len(fields))
			continue
		}
		pos, perr := strconv.Atoi(fields[1])
		if perr != nil {
			r.shortRows++
			r.logf("dbnsfp4: skipping row with non-numeric pos %q", fields[1])
			continue
		}
		chrom := "chr" + fields[0]

		variant, facet, transcripts, perr := parseRow(r.layout, fields)
		if perr != nil {
			r.shortRows++
			r.logf("dbnsfp4: skipping row: %v", perr)
			continue
		}
		identity := identityTuple(r.layout, variant)
		key := RecordKey{Chrom: chrom, Pos: uint32(pos)}

		if r.haveBuffered && r.bufKey == key {
			if r.lastIdentity != nil && equalTuple(r.lastIdentity, identity) {
				last := &r.bufVariants[len(r.bufVariants)-1]
				last.Facets = append(last.Facets, Facet{Fields: facet, Transcripts: transcripts})
			} else {
				r.bufVariants = append(r.bufVariants, Variant{
					Fields: variant,
					Facets: []Facet{{Fields: facet, Transcripts: transcripts}},
				})
			}
			r.lastIdentity = identity
			continue
		}

		var outKey []byte
		var outRecs []recenc.Record
		if r.haveBuffered {
			outKey, outRecs, err = r.emitBuffered()
			if err != nil {
				return nil, nil, err
			}
		}
		r.bufKey = key
		r.bufVariants = []Variant{{
			Fields: variant,
			Facets: []Facet{{Fields: facet, Transcripts: transcripts}},
		}}
		r.lastIdentity = identity
		r.haveBuffered = true
		if outRecs != nil {
			return outKey, outRecs, nil
		}
	}
}

func (r *Reader) emitBuffered() ([]byte, []recenc.Record, error) {
	rec := Record{Key: r.bufKey, Variants: r.bufVariants}
	key, err := r.keyCodec.EncodeKey(rec.Key.Chrom, rec.Key.Pos)
	if err != nil {
		return nil, nil, fmt.Errorf("dbnsfp4: encoding key for %+v: %w", rec.Key, err)
	}
	return key, []recenc.Record{rec}, nil
}

func (r *Reader) flushBuffered() ([]byte, []recenc.Record, error) {
	if !r.haveBuffered {
		return nil, nil, io.EOF
	}
	r.haveBuffered = false
	return r.emitBuffered()
}
