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

// Package merge implements the k-way merge of ordered sub-readers
// into a single ordered stream, fusing record lists at equal keys.
package merge

import (
	"bytes"
	"io"

	"github.com/praefrontalis/Anfisa-Annotations/recenc"
)

// SubReader produces (key, records) pairs in non-decreasing key
// order, returning io.EOF once exhausted.
type SubReader interface {
	Next() (key []byte, records []recenc.Record, err error)
}

// linearScanThreshold is the sub-reader count above which
// JoinedReader switches its "find the minimum lookahead key" step
// from an O(n) scan to an O(log n) heap, avoiding O(n^2) behavior over
// many shard files. Both paths implement the identical nextOne
// contract; see joined_test.go for a property test that they agree.
const linearScanThreshold = 4

// JoinedReader merges len(subs) ordered sub-readers into a single
// ordered stream. MaxCount, if non-zero, caps the number of merged
// keys emitted.
type JoinedReader struct {
	subs      []SubReader
	bufKey    [][]byte
	bufRecs   [][]recenc.Record
	exhausted []bool

	MaxCount int64

	done    bool
	emitted int64

	useHeap bool
	h       []heapEntry
}

type heapEntry struct {
	idx int
	key []byte
}

func lessEntry(a, b heapEntry) bool {
	c := bytes.Compare(a.key, b.key)
	if c != 0 {
		return c < 0
	}
	return a.idx < b.idx
}

// NewJoinedReader primes one lookahead record from every sub-reader.
func NewJoinedReader(subs []SubReader) (*JoinedReader, error) {
	j := &JoinedReader{
		subs:      subs,
		bufKey:    make([][]byte, len(subs)),
		bufRecs:   make([][]recenc.Record, len(subs)),
		exhausted: make([]bool, len(subs)),
		useHeap:   len(subs) > linearScanThreshold,
	}
	for i := range subs {
		if err := j.refill(i); err != nil {
			return nil, err
		}
	}
	if j.useHeap {
		j.rebuildHeap()
	}
	return j, nil
}

func (j *JoinedReader) refill(i int) error {
	if j.exhausted[i] {
		return nil
	}
	key, recs, err := j.subs[i].Next()
	if err == io.EOF {
		j.exhausted[i] = true
		j.bufKey[i] = nil
		j.bufRecs[i] = nil
		return nil
	}
	if err != nil {
		return err
	}
	j.bufKey[i] = key
	j.bufRecs[i] = recs
	return nil
}

func (j *JoinedReader) rebuildHeap() {
	j.h = j.h[:0]
	for i, k := range j.bufKey {
		if k != nil {
			j.h = heapPush(j.h, heapEntry{idx: i, key: k})
		}
	}
}

// heapPush appends e to h and walks it toward the root, swapping with
// its parent for as long as the parent sorts after it. Only the
// single concrete heapEntry type is ever pushed here, so this isn't
// written as a generic container -- JoinedReader's heap path has no
// use for arbitrary element types, insertion at an arbitrary index, or
// an explicit Fix operation, only "add one" and "take the minimum".
func heapPush(h []heapEntry, e heapEntry) []heapEntry {
	h = append(h, e)
	child := len(h) - 1
	for child > 0 {
		parent := (child - 1) / 2
		if !lessEntry(h[child], h[parent]) {
			break
		}
		h[parent], h[child] = h[child], h[parent]
		child = parent
	}
	return h
}

// heapPopMin removes and returns the minimum element of h, moving the
// heap's last element to the root and settling it by repeatedly
// swapping with the smaller of its two children.
func heapPopMin(h []heapEntry) ([]heapEntry, heapEntry) {
	top := h[0]
	last := len(h) - 1
	h[0] = h[last]
	h = h[:last]

	root := 0
	for {
		smallest := root
		if l := 2*root + 1; l < len(h) && lessEntry(h[l], h[smallest]) {
			smallest = l
		}
		if r := 2*root + 2; r < len(h) && lessEntry(h[r], h[smallest]) {
			smallest = r
		}
		if smallest == root {
			break
		}
		h[root], h[smallest] = h[smallest], h[root]
		root = smallest
	}
	return h, top
}

// NextOne computes the minimum lookahead key across all non-exhausted
// sub-readers, fuses every sub-reader currently at that key (in
// sub-reader index order), refills their buffers, and returns.
// Returns io.EOF once every sub-reader is exhausted or MaxCount is
// reached.
func (j *JoinedReader) NextOne() (key []byte, records []recenc.Record, err error) {
	if j.done {
		return nil, nil, io.EOF
	}
	if j.useHeap {
		key, records, err = j.nextOneHeap()
	} else {
		key, records, err = j.nextOneScan()
	}
	if err != nil {
		return nil, nil, err
	}
	j.emitted++
	if j.MaxCount > 0 && j.emitted >= j.MaxCount {
		j.done = true
	}
	return key, records, nil
}

func (j *JoinedReader) nextOneScan() ([]byte, []recenc.Record, error) {
	minIdx := -1
	for i, k := range j.bufKey {
		if k == nil {
			continue
		}
		if minIdx == -1 || bytes.Compare(k, j.bufKey[minIdx]) < 0 {
			minIdx = i
		}
	}
	if minIdx == -1 {
		j.done = true
		return nil, nil, io.EOF
	}
	minKey := j.bufKey[minIdx]
	var out []recenc.Record
	for i, k := range j.bufKey {
		if k == nil || !bytes.Equal(k, minKey) {
			continue
		}
		out = append(out, j.bufRecs[i]...)
		if err := j.refill(i); err != nil {
			return nil, nil, err
		}
	}
	return minKey, out, nil
}

func (j *JoinedReader) nextOneHeap() ([]byte, []recenc.Record, error) {
	if len(j.h) == 0 {
		j.done = true
		return nil, nil, io.EOF
	}
	minKey := append([]byte(nil), j.h[0].key...)
	var out []recenc.Record
	var popped []int
	for len(j.h) > 0 && bytes.Equal(j.h[0].key, minKey) {
		var top heapEntry
		j.h, top = heapPopMin(j.h)
		out = append(out, j.bufRecs[top.idx]...)
		popped = append(popped, top.idx)
	}
	for _, idx := range popped {
		if err := j.refill(idx); err != nil {
			return nil, nil, err
		}
		if j.bufKey[idx] != nil {
			j.h = heapPush(j.h, heapEntry{idx: idx, key: j.bufKey[idx]})
		}
	}
	return minKey, out, nil
}
