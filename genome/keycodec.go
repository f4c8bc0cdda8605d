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

package genome

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownChromosome is returned by KeyCodec.Encode when the
// requested chromosome is not present in the build's table.
var ErrUnknownChromosome = errors.New("genome: unknown chromosome")

// ErrKeyOutOfRange is returned by KeyCodec.Decode when the key bytes
// decode to an address below the build's first chromosome start.
var ErrKeyOutOfRange = errors.New("genome: key out of range")

// KeyCodec encodes and decodes (chromosome, position) pairs into the
// 4-byte big-endian address space fixed by a reference Build.
//
// Key byte order equals (chrom index, pos) sort order: KeyCodec never
// needs to re-derive chromosome order at comparison time, since the
// encoding itself is monotonic in the build's chromosome table order.
type KeyCodec struct {
	build *Build
}

// NewKeyCodec returns a KeyCodec fixed to the given reference build.
func NewKeyCodec(build *Build) *KeyCodec {
	return &KeyCodec{build: build}
}

// Build returns the reference build this codec was constructed with.
func (k *KeyCodec) Build() *Build { return k.build }

// Encode returns the 4-byte big-endian key for (chrom, pos).
//
// Encode does not bounds-check pos against the chromosome's
// RealLength: a pos beyond the real sequence length still produces a
// well-defined address (it is simply not biologically meaningful).
// Callers that need that guarantee must check pos themselves.
func (k *KeyCodec) Encode(chrom string, pos uint32) ([4]byte, error) {
	var out [4]byte
	i, ok := k.build.index(chrom)
	if !ok {
		return out, fmt.Errorf("%w: %q on build %q", ErrUnknownChromosome, chrom, k.build.Name)
	}
	binary.BigEndian.PutUint32(out[:], k.build.Chroms[i].Start+pos)
	return out, nil
}

// Decode returns the (chrom, pos) pair encoded by key.
//
// key must be at least 4 bytes; only the first 4 are interpreted.
func (k *KeyCodec) Decode(key []byte) (chrom string, pos uint32, err error) {
	if len(key) < 4 {
		return "", 0, fmt.Errorf("genome: short key (%d bytes)", len(key))
	}
	addr := binary.BigEndian.Uint32(key[:4])
	// Largest start <= addr: sort.Search finds the first index whose
	// start is > addr, then we step back one. This is the corrected
	// form of the original single-argument bisect_left call (see
	// DESIGN.md open-question 1): sort.Search(...) - 1, equivalent to
	// bisect_right(starts, addr) - 1.
	starts := k.build.starts
	j := sort.Search(len(starts), func(i int) bool {
		return starts[i] > addr
	})
	if j == 0 {
		return "", 0, fmt.Errorf("%w: address %#08x precedes build %q", ErrKeyOutOfRange, addr, k.build.Name)
	}
	c := k.build.Chroms[j-1]
	return c.Name, addr - c.Start, nil
}

// EncodeKey is a convenience wrapper returning a []byte instead of a
// [4]byte array, for callers that pass keys directly to a KV engine.
func (k *KeyCodec) EncodeKey(chrom string, pos uint32) ([]byte, error) {
	a, err := k.Encode(chrom, pos)
	if err != nil {
		return nil, err
	}
	return a[:], nil
}
