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
	"testing"
)

func TestEncodeHG38Worked(t *testing.T) {
	k := NewKeyCodec(HG38)
	key, err := k.Encode("chr1", 1000)
	if err != nil {
		t.Fatal(err)
	}
	got := binary.BigEndian.Uint32(key[:])
	const want = 0x003007E8
	if got != want {
		t.Fatalf("encode(chr1, 1000) = %#08x, want %#08x", got, want)
	}
	chrom, pos, err := k.Decode(key[:])
	if err != nil {
		t.Fatal(err)
	}
	if chrom != "chr1" || pos != 1000 {
		t.Fatalf("decode roundtrip = (%s, %d), want (chr1, 1000)", chrom, pos)
	}
}

func TestChromosomeOrderHG38(t *testing.T) {
	k := NewKeyCodec(HG38)
	names := []string{"chrM", "chr1", "chr22", "chrX", "chrY"}
	var prev uint32
	for i, name := range names {
		key, err := k.Encode(name, 0)
		if err != nil {
			t.Fatal(err)
		}
		v := binary.BigEndian.Uint32(key[:])
		if i > 0 && v <= prev {
			t.Fatalf("encode(%s,0)=%#x not greater than previous %#x", name, v, prev)
		}
		prev = v
	}
}

func TestEncodeUnknownChromosome(t *testing.T) {
	k := NewKeyCodec(HG38)
	_, err := k.Encode("chrZZZ", 0)
	if !errors.Is(err, ErrUnknownChromosome) {
		t.Fatalf("got %v, want ErrUnknownChromosome", err)
	}
}

func TestDecodeKeyOutOfRange(t *testing.T) {
	k := NewKeyCodec(HG38)
	var below [4]byte
	binary.BigEndian.PutUint32(below[:], 10) // inside the reserved prefix
	_, _, err := k.Decode(below[:])
	if !errors.Is(err, ErrKeyOutOfRange) {
		t.Fatalf("got %v, want ErrKeyOutOfRange", err)
	}
}

func TestRoundTripAllChromosomes(t *testing.T) {
	for _, build := range []*Build{HG19, HG38} {
		k := NewKeyCodec(build)
		for _, c := range build.Chroms {
			for _, pos := range []uint32{0, 1, c.RealLength - 1} {
				key, err := k.Encode(c.Name, pos)
				if err != nil {
					t.Fatalf("%s: encode(%s,%d): %v", build.Name, c.Name, pos, err)
				}
				gotChrom, gotPos, err := k.Decode(key[:])
				if err != nil {
					t.Fatalf("%s: decode(%s,%d): %v", build.Name, c.Name, pos, err)
				}
				if gotChrom != c.Name || gotPos != pos {
					t.Fatalf("%s: roundtrip(%s,%d) = (%s,%d)", build.Name, c.Name, pos, gotChrom, gotPos)
				}
			}
		}
	}
}

func TestEncodeOrderPreserving(t *testing.T) {
	build := HG38
	k := NewKeyCodec(build)
	for i := 0; i < len(build.Chroms)-1; i++ {
		a := build.Chroms[i]
		b := build.Chroms[i+1]
		ka, err := k.Encode(a.Name, a.RealLength-1)
		if err != nil {
			t.Fatal(err)
		}
		kb, err := k.Encode(b.Name, 0)
		if err != nil {
			t.Fatal(err)
		}
		if binary.BigEndian.Uint32(ka[:]) >= binary.BigEndian.Uint32(kb[:]) {
			t.Fatalf("chromosome %s does not sort before %s", a.Name, b.Name)
		}
	}
}
