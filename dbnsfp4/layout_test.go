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
	"errors"
	"testing"
)

func testSchema() []FieldSpec {
	return []FieldSpec{
		{Name: "REF", Type: TypeStr, Tab: TabVariant},
		{Name: "ALT", Type: TypeStr, Tab: TabVariant},
		{Name: "Ensembl_transcriptid", Type: TypeStr, Tab: TabTranscript},
		{Name: "SIFT_pred", Type: TypeStr, Tab: TabTranscript},
	}
}

func TestNewFieldLayoutRejectsBadHeader(t *testing.T) {
	_, err := NewFieldLayout([]string{"notchrom", "notpos"}, testSchema())
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("err = %v, want ErrBadHeader", err)
	}
}

func TestNewFieldLayoutRejectsMissingField(t *testing.T) {
	_, err := NewFieldLayout([]string{"chr", "pos", "ref", "alt"}, testSchema())
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestNewFieldLayoutAppliesAlias(t *testing.T) {
	header := []string{"chr", "pos", "ref", "alt", "Ensembl_transcriptid", "SIFT_pred"}
	layout, err := NewFieldLayout(header, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.Header[2] != "REF" || layout.Header[3] != "ALT" {
		t.Fatalf("Header = %v, want aliased REF/ALT at 2,3", layout.Header)
	}
}

func TestParseRowTranscriptPadding(t *testing.T) {
	header := []string{"chr", "pos", "ref", "alt", "Ensembl_transcriptid", "SIFT_pred"}
	layout, err := NewFieldLayout(header, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ensembl_transcriptid lists 3 transcripts; SIFT_pred lists only 2,
	// so the third transcript's SIFT_pred cell pads out to ".".
	fields := []string{"1", "100", "A", "T", "ENST1;ENST2;ENST3", "D;T"}
	_, _, transcripts, err := parseRow(layout, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transcripts) != 3 {
		t.Fatalf("len(transcripts) = %d, want 3", len(transcripts))
	}
	if transcripts[2].Fields["SIFT_pred"].Kind != ValueNull {
		t.Fatalf("transcripts[2].SIFT_pred = %+v, want null", transcripts[2].Fields["SIFT_pred"])
	}
	if transcripts[0].Fields["Ensembl_transcriptid"].Str != "ENST1" {
		t.Fatalf("transcripts[0].Ensembl_transcriptid = %+v, want ENST1", transcripts[0].Fields["Ensembl_transcriptid"])
	}
}

func TestParseRowShortRow(t *testing.T) {
	header := []string{"chr", "pos", "ref", "alt", "Ensembl_transcriptid", "SIFT_pred"}
	layout, err := NewFieldLayout(header, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := []string{"1", "100", "A"}
	_, _, _, err = parseRow(layout, fields)
	if !errors.Is(err, ErrShortRow) {
		t.Fatalf("err = %v, want ErrShortRow", err)
	}
}

func TestIdentityTupleChangesOnAnyVariantField(t *testing.T) {
	header := []string{"chr", "pos", "ref", "alt", "Ensembl_transcriptid", "SIFT_pred"}
	layout, err := NewFieldLayout(header, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v1, _, _, err := parseRow(layout, []string{"1", "100", "A", "T", "ENST1", "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, _, _, err := parseRow(layout, []string{"1", "100", "A", "C", "ENST1", "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id1 := identityTuple(layout, v1)
	id2 := identityTuple(layout, v2)
	if equalTuple(id1, id2) {
		t.Fatalf("identity tuples should differ when ALT changes: %v vs %v", id1, id2)
	}

	v3, _, _, err := parseRow(layout, []string{"1", "100", "A", "T", "ENST1", "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id3 := identityTuple(layout, v3)
	if !equalTuple(id1, id3) {
		t.Fatalf("identity tuples should match for identical variant rows: %v vs %v", id1, id3)
	}
}
