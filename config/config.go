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

// Package config loads and validates the IO descriptor: a mapping of
// resolved configuration options where every supplied property must
// be consumed, in read and write mode alike -- an unused key is a
// fatal configuration error.
package config

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/praefrontalis/Anfisa-Annotations/store"
)

// ErrConfigUnused is returned by Load when the descriptor supplies a
// key that no resolution step consumed.
var ErrConfigUnused = errors.New("config: unused descriptor key")

// BlockOptions carries the block-codec-variant-specific settings
// resolved out of the descriptor (span, compress), to be handed to
// whichever blockcodec constructor the caller selects based on
// BlockType.
type BlockOptions struct {
	Span     uint32
	Compress bool
}

// Load parses raw YAML into a store.Descriptor and BlockOptions,
// consuming each recognized key and failing with ErrConfigUnused if
// any key remains.
func Load(raw []byte) (store.Descriptor, BlockOptions, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return store.Descriptor{}, BlockOptions{}, fmt.Errorf("config: parsing descriptor: %w", err)
	}

	desc := store.Descriptor{CacheSize: store.DefaultCacheSize}
	var opts BlockOptions

	take := func(key string) (any, bool) {
		v, ok := fields[key]
		if ok {
			delete(fields, key)
		}
		return v, ok
	}

	if v, ok := take("schema"); ok {
		s, ok := v.(string)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a string", "schema")
		}
		desc.Schema = s
	}
	if v, ok := take("write-mode"); ok {
		b, ok := v.(bool)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a bool", "write-mode")
		}
		desc.WriteMode = b
	}
	if v, ok := take("with-str"); ok {
		b, ok := v.(bool)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a bool", "with-str")
		}
		desc.WithStr = b
	}
	if v, ok := take("cache-size"); ok {
		n, err := asInt(v)
		if err != nil {
			return desc, opts, fmt.Errorf("config: %q: %w", "cache-size", err)
		}
		desc.CacheSize = n
	}
	if v, ok := take("build"); ok {
		s, ok := v.(string)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a string", "build")
		}
		desc.Build = s
	}
	if v, ok := take("block-type"); ok {
		s, ok := v.(string)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a string", "block-type")
		}
		desc.BlockType = s
	}
	if v, ok := take("span"); ok {
		n, err := asInt(v)
		if err != nil {
			return desc, opts, fmt.Errorf("config: %q: %w", "span", err)
		}
		opts.Span = uint32(n)
	}
	if v, ok := take("compress"); ok {
		b, ok := v.(bool)
		if !ok {
			return desc, opts, fmt.Errorf("config: %q must be a bool", "compress")
		}
		opts.Compress = b
	}

	if len(fields) > 0 {
		var unused []string
		for k := range fields {
			unused = append(unused, k)
		}
		return desc, opts, fmt.Errorf("%w: %v", ErrConfigUnused, unused)
	}

	desc.Options = map[string]any{"span": opts.Span, "compress": opts.Compress}
	return desc, opts, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
