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

package tsv

import (
	"io"
	"strings"
	"testing"
)

func TestChopperBasic(t *testing.T) {
	var c Chopper
	r := strings.NewReader("a\tb\tc\nd\te\tf\n")

	fields, err := c.Next(r)
	if err != nil {
		t.Fatalf("line 1: %v", err)
	}
	if got := strings.Join(fields, ","); got != "a,b,c" {
		t.Fatalf("line 1 = %q, want a,b,c", got)
	}

	fields, err = c.Next(r)
	if err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if got := strings.Join(fields, ","); got != "d,e,f" {
		t.Fatalf("line 2 = %q, want d,e,f", got)
	}

	if _, err := c.Next(r); err != io.EOF {
		t.Fatalf("line 3 err = %v, want io.EOF", err)
	}
}

func TestChopperEscapes(t *testing.T) {
	var c Chopper
	r := strings.NewReader(`a\tb` + "\t" + `c\nd` + "\t" + `e\\f` + "\n")

	fields, err := c.Next(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a\tb", "c\nd", `e\f`}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestChopperSkipsBlankLines(t *testing.T) {
	var c Chopper
	r := strings.NewReader("a\tb\n\nc\td\n")

	fields, err := c.Next(r)
	if err != nil {
		t.Fatalf("line 1: %v", err)
	}
	if strings.Join(fields, ",") != "a,b" {
		t.Fatalf("line 1 = %v", fields)
	}

	fields, err = c.Next(r)
	if err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if strings.Join(fields, ",") != "c,d" {
		t.Fatalf("line 2 = %v", fields)
	}
}

func TestChopperSingleColumn(t *testing.T) {
	var c Chopper
	r := strings.NewReader("onlyone\n")

	fields, err := c.Next(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0] != "onlyone" {
		t.Fatalf("fields = %v, want [onlyone]", fields)
	}
}

func FuzzChopper(f *testing.F) {
	f.Add("a\tb\tc\n")
	f.Add(`x\ty\tz` + "\n")
	f.Fuzz(func(t *testing.T, input string) {
		var c Chopper
		r := strings.NewReader(input)
		for {
			if _, err := c.Next(r); err != nil {
				break
			}
		}
	})
}
