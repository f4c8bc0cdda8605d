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
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldType is one of DBNSFP4's two declared value types.
type FieldType int

const (
	TypeStr FieldType = iota
	TypeFloat
)

// ValueKind discriminates Value's sum-type cases.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueStr
	ValueFloat
)

// Value is a small sum type: Null, Str, or Float, reflecting
// DBNSFP4's two declared field types plus the "." missing-value
// sentinel.
type Value struct {
	Kind  ValueKind
	Str   string
	Float float64
}

func nullValue() Value          { return Value{Kind: ValueNull} }
func strValue(s string) Value   { return Value{Kind: ValueStr, Str: s} }
func floatValue(f float64) Value { return Value{Kind: ValueFloat, Float: f} }

// parseValue parses raw according to t, treating "." as null.
func parseValue(raw string, t FieldType) (Value, error) {
	if raw == "." {
		return nullValue(), nil
	}
	switch t {
	case TypeStr:
		return strValue(raw), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("dbnsfp4: parsing float value %q: %w", raw, err)
		}
		return floatValue(f), nil
	default:
		return Value{}, fmt.Errorf("dbnsfp4: unknown field type %d", t)
	}
}

// MarshalJSON renders Value as the recenc.JSONCodec frame would
// expect: null, a JSON string, or a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueStr:
		return json.Marshal(v.Str)
	case ValueFloat:
		return json.Marshal(v.Float)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = nullValue()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = floatValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dbnsfp4: decoding value: %w", err)
	}
	*v = strValue(s)
	return nil
}
