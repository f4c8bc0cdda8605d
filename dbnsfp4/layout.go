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
	"fmt"
	"strings"
)

// Tab names one of the three record sections a field can belong to.
type Tab int

const (
	TabVariant Tab = iota
	TabFacet
	TabTranscript
)

// FieldSpec declares one field an ingest run expects to find in the
// shard header, and which tab/type it belongs to.
type FieldSpec struct {
	Name string
	Type FieldType
	Tab  Tab
}

// aliasTable holds a handful of DBNSFP4 header names that don't match
// their canonical schema field name after the generic "-" -> "_"
// normalization.
var aliasTable = map[string]string{
	"ref":               "REF",
	"alt":               "ALT",
	"Eigen_pred_coding": "Eigen_phred_coding",
}

func normalizeName(raw string) string {
	name := strings.ReplaceAll(raw, "-", "_")
	if alias, ok := aliasTable[name]; ok {
		return alias
	}
	return name
}

// ErrBadHeader is returned by NewFieldLayout when the header's first
// two columns aren't chr*/pos*.
var ErrBadHeader = errors.New("dbnsfp4: header columns 0-1 must be chr*/pos*")

// ErrMissingField is returned by NewFieldLayout when a schema-declared
// field has no matching header column.
var ErrMissingField = errors.New("dbnsfp4: declared field not found in header")

type resolvedField struct {
	spec  FieldSpec
	index int
}

// FieldLayout is a plain value built once from a shard's header line
// and a declared field schema: no package-level mutable state, so
// concurrently opened shards with different header orderings never
// interfere with each other.
type FieldLayout struct {
	Header     []string
	variant    []resolvedField
	facet      []resolvedField
	transcript []resolvedField
}

// NewFieldLayout validates headerLine and resolves every field in
// schema to a column index. A schema field with no matching header
// column is a fatal error naming the full available field list.
func NewFieldLayout(headerLine []string, schema []FieldSpec) (*FieldLayout, error) {
	if len(headerLine) < 2 {
		return nil, fmt.Errorf("dbnsfp4: header has %d columns, need at least 2", len(headerLine))
	}
	c0 := strings.ToLower(headerLine[0])
	c1 := strings.ToLower(headerLine[1])
	if !strings.HasPrefix(c0, "chr") || !strings.HasPrefix(c1, "pos") {
		return nil, fmt.Errorf("%w: got %q, %q", ErrBadHeader, headerLine[0], headerLine[1])
	}

	normalized := make([]string, len(headerLine))
	byName := make(map[string]int, len(headerLine))
	for i, raw := range headerLine {
		name := normalizeName(raw)
		normalized[i] = name
		byName[name] = i
	}

	layout := &FieldLayout{Header: normalized}
	var missing []string
	for _, spec := range schema {
		idx, ok := byName[spec.Name]
		if !ok {
			missing = append(missing, spec.Name)
			continue
		}
		rf := resolvedField{spec: spec, index: idx}
		switch spec.Tab {
		case TabVariant:
			layout.variant = append(layout.variant, rf)
		case TabFacet:
			layout.facet = append(layout.facet, rf)
		case TabTranscript:
			layout.transcript = append(layout.transcript, rf)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v (available fields: %v)", ErrMissingField, missing, normalized)
	}
	return layout, nil
}

// ErrShortRow is returned by parseRow when fields has fewer columns
// than the layout requires; callers treat this as a non-fatal,
// countable skip.
var ErrShortRow = errors.New("dbnsfp4: short row")

// parseRow resolves one line's fields against layout into its
// variant-tab values, facet-tab values, and the positionally-aligned
// transcript list.
func parseRow(layout *FieldLayout, fields []string) (variant map[string]Value, facet map[string]Value, transcripts []Transcript, err error) {
	variant = make(map[string]Value, len(layout.variant))
	for _, rf := range layout.variant {
		v, err := cellValue(fields, rf)
		if err != nil {
			return nil, nil, nil, err
		}
		variant[rf.spec.Name] = v
	}
	facet = make(map[string]Value, len(layout.facet))
	for _, rf := range layout.facet {
		v, err := cellValue(fields, rf)
		if err != nil {
			return nil, nil, nil, err
		}
		facet[rf.spec.Name] = v
	}

	n := 0
	raw := make(map[string][]string, len(layout.transcript))
	for _, rf := range layout.transcript {
		if rf.index >= len(fields) {
			return nil, nil, nil, fmt.Errorf("%w: transcript field %q at column %d", ErrShortRow, rf.spec.Name, rf.index)
		}
		parts := strings.Split(fields[rf.index], ";")
		raw[rf.spec.Name] = parts
		if len(parts) > n {
			n = len(parts)
		}
	}
	transcripts = make([]Transcript, n)
	for i := 0; i < n; i++ {
		tf := make(map[string]Value, len(layout.transcript))
		for _, rf := range layout.transcript {
			parts := raw[rf.spec.Name]
			cell := "."
			if i < len(parts) {
				cell = parts[i]
			}
			v, err := parseValue(cell, rf.spec.Type)
			if err != nil {
				return nil, nil, nil, err
			}
			tf[rf.spec.Name] = v
		}
		transcripts[i] = Transcript{Fields: tf}
	}
	return variant, facet, transcripts, nil
}

func cellValue(fields []string, rf resolvedField) (Value, error) {
	if rf.index >= len(fields) {
		return Value{}, fmt.Errorf("%w: field %q at column %d", ErrShortRow, rf.spec.Name, rf.index)
	}
	return parseValue(fields[rf.index], rf.spec.Type)
}

// identityTuple extracts the ordered variant-tab values used to
// detect a new variant within a (chrom, pos) group: any difference
// from the prior row's tuple starts a new variant.
func identityTuple(layout *FieldLayout, variant map[string]Value) []Value {
	out := make([]Value, len(layout.variant))
	for i, rf := range layout.variant {
		out[i] = variant[rf.spec.Name]
	}
	return out
}

func equalTuple(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
