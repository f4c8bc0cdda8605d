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

package recenc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvRoundTripWithInterning(t *testing.T) {
	e := NewEncodeEnv(true)
	i0, err := e.AddStr("foo", true)
	if err != nil || i0 != 0 {
		t.Fatalf("AddStr(foo) = (%d, %v), want (0, nil)", i0, err)
	}
	i1, err := e.AddStr("foo", true)
	if err != nil || i1 != 0 {
		t.Fatalf("AddStr(foo) second call = (%d, %v), want (0, nil)", i1, err)
	}
	i2, err := e.AddStr("bar", true)
	if err != nil || i2 != 1 {
		t.Fatalf("AddStr(bar) = (%d, %v), want (1, nil)", i2, err)
	}

	cols := e.Result()
	if len(cols) != 2 {
		t.Fatalf("Result() returned %d columns, want 2", len(cols))
	}
	d, err := NewDecodeEnv(cols)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 (no object frames were added)", d.Len())
	}
	if s, err := d.GetStr(0); err != nil || s != "foo" {
		t.Fatalf("GetStr(0) = (%q, %v), want (foo, nil)", s, err)
	}
	if s, err := d.GetStr(1); err != nil || s != "bar" {
		t.Fatalf("GetStr(1) = (%q, %v), want (bar, nil)", s, err)
	}
}

func TestEnvRoundTripRecords(t *testing.T) {
	codec := JSONCodec{}
	records := []Record{
		map[string]any{"a": float64(1)},
		map[string]any{"b": "two"},
		nil,
	}
	e := NewEncodeEnv(false)
	for _, r := range records {
		if err := e.Put(r, codec); err != nil {
			t.Fatal(err)
		}
	}
	d, err := NewDecodeEnv(e.Result())
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != len(records) {
		t.Fatalf("Len() = %d, want %d", d.Len(), len(records))
	}
	for i, want := range records {
		got, err := d.Get(i, codec)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("record %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestAddStrDisabled(t *testing.T) {
	e := NewEncodeEnv(false)
	if _, err := e.AddStr("x", true); err != ErrStringColumnDisabled {
		t.Fatalf("got %v, want ErrStringColumnDisabled", err)
	}
}

func TestNulRejected(t *testing.T) {
	e := NewEncodeEnv(false)
	if err := e.PutValueStr("a\x00b"); err != ErrNulInFrame {
		t.Fatalf("got %v, want ErrNulInFrame", err)
	}
}

func TestGetStrNoStringColumn(t *testing.T) {
	e := NewEncodeEnv(false)
	_ = e.PutValueStr("hello")
	d, err := NewDecodeEnv(e.Result())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetStr(0); err != ErrNoStringColumn {
		t.Fatalf("got %v, want ErrNoStringColumn", err)
	}
}
