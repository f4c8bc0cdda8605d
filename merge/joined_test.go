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

package merge

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"testing"

	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

type fakeRow struct {
	key []byte
	rec recenc.Record
}

// sliceReader replays a fixed sequence of (key, records) pairs.
type sliceReader struct {
	rows []fakeRow
	pos  int
}

func key32(n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b[:]
}

func (s *sliceReader) Next() ([]byte, []recenc.Record, error) {
	if s.pos >= len(s.rows) {
		return nil, nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row.key, []recenc.Record{row.rec}, nil
}

// TestJoinedReaderScenario covers reader A yielding (5,[a1]),(8,[a2])
// and reader B yielding (5,[b1]),(7,[b2]). The merge must emit
// (5,[a1,b1]), (7,[b2]), (8,[a2]), then io.EOF.
func TestJoinedReaderScenario(t *testing.T) {
	a := &sliceReader{rows: []fakeRow{{key32(5), "a1"}, {key32(8), "a2"}}}
	b := &sliceReader{rows: []fakeRow{{key32(5), "b1"}, {key32(7), "b2"}}}
	jr, err := NewJoinedReader([]SubReader{a, b})
	if err != nil {
		t.Fatal(err)
	}

	type step struct {
		key  uint32
		recs []recenc.Record
	}
	want := []step{
		{5, []recenc.Record{"a1", "b1"}},
		{7, []recenc.Record{"b2"}},
		{8, []recenc.Record{"a2"}},
	}
	for i, w := range want {
		k, recs, err := jr.NextOne()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if binary.BigEndian.Uint32(k) != w.key {
			t.Fatalf("step %d: key = %d, want %d", i, binary.BigEndian.Uint32(k), w.key)
		}
		if len(recs) != len(w.recs) {
			t.Fatalf("step %d: records = %v, want %v", i, recs, w.recs)
		}
		for j := range recs {
			if recs[j] != w.recs[j] {
				t.Fatalf("step %d: records = %v, want %v", i, recs, w.recs)
			}
		}
	}
	if _, _, err := jr.NextOne(); err != io.EOF {
		t.Fatalf("final NextOne() err = %v, want io.EOF", err)
	}
}

func TestJoinedReaderMaxCount(t *testing.T) {
	a := &sliceReader{rows: []fakeRow{{key32(1), "x"}, {key32(2), "y"}, {key32(3), "z"}}}
	jr, err := NewJoinedReader([]SubReader{a})
	if err != nil {
		t.Fatal(err)
	}
	jr.MaxCount = 2
	for i := 0; i < 2; i++ {
		if _, _, err := jr.NextOne(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if _, _, err := jr.NextOne(); err != io.EOF {
		t.Fatalf("after MaxCount reached, err = %v, want io.EOF", err)
	}
}

func TestJoinedReaderEmpty(t *testing.T) {
	jr, err := NewJoinedReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := jr.NextOne(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

// buildRandomReaders produces n sub-readers, each with a sorted random
// subset of the address space, so the merged stream must interleave.
func buildRandomReaders(t *testing.T, rng *rand.Rand, n int) []SubReader {
	t.Helper()
	subs := make([]SubReader, n)
	for i := range subs {
		count := 1 + rng.Intn(20)
		keys := make([]uint32, count)
		cur := uint32(0)
		for j := range keys {
			cur += uint32(1 + rng.Intn(5))
			keys[j] = cur
		}
		rows := make([]fakeRow, count)
		for j, k := range keys {
			rows[j] = fakeRow{key32(k), k}
		}
		subs[i] = &sliceReader{rows: rows}
	}
	return subs
}

func drain(t *testing.T, jr *JoinedReader) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		k, _, err := jr.NextOne()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, append([]byte(nil), k...))
	}
}

// TestJoinedReaderLinearAndHeapAgree asserts the small (linear-scan)
// and large (heap) sub-reader-count code paths in nextOneScan and
// nextOneHeap produce identical key sequences for the same input.
func TestJoinedReaderLinearAndHeapAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		seed := rng.Int63()
		rngA := rand.New(rand.NewSource(seed))
		rngB := rand.New(rand.NewSource(seed))

		subsLinear := buildRandomReaders(t, rngA, 3)
		subsHeap := buildRandomReaders(t, rngB, 3)

		jrLinear, err := NewJoinedReader(subsLinear)
		if err != nil {
			t.Fatal(err)
		}
		jrLinear.useHeap = false

		jrHeap, err := NewJoinedReader(subsHeap)
		if err != nil {
			t.Fatal(err)
		}
		jrHeap.useHeap = true
		jrHeap.rebuildHeap()

		seqLinear := drain(t, jrLinear)
		seqHeap := drain(t, jrHeap)

		if len(seqLinear) != len(seqHeap) {
			t.Fatalf("trial %d: lengths differ: %d vs %d", trial, len(seqLinear), len(seqHeap))
		}
		for i := range seqLinear {
			if !bytes.Equal(seqLinear[i], seqHeap[i]) {
				t.Fatalf("trial %d: step %d key mismatch: %x vs %x", trial, i, seqLinear[i], seqHeap[i])
			}
		}
		for i := 1; i < len(seqLinear); i++ {
			if bytes.Compare(seqLinear[i-1], seqLinear[i]) > 0 {
				t.Fatalf("trial %d: output not non-decreasing at %d", trial, i)
			}
		}
	}
}

// TestJoinedReaderManySubReadersUsesHeap exercises the >4 sub-reader
// heap path end to end.
func TestJoinedReaderManySubReadersUsesHeap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	subs := buildRandomReaders(t, rng, 9)
	jr, err := NewJoinedReader(subs)
	if err != nil {
		t.Fatal(err)
	}
	if !jr.useHeap {
		t.Fatal("useHeap = false for 9 sub-readers, want true")
	}
	seq := drain(t, jr)
	for i := 1; i < len(seq); i++ {
		if bytes.Compare(seq[i-1], seq[i]) > 0 {
			t.Fatalf("output not non-decreasing at %d", i)
		}
	}
}
