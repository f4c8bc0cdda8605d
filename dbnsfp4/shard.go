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
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/praefrontalis/Anfisa-Annotations/genome"
)

// OpenShard opens the gzip-compressed DBNSFP4 shard at path and
// returns a Reader over its decompressed contents, plus a Closer that
// releases the gzip reader and underlying file together. The caller
// must call the returned Closer once done, whether or not the Reader
// is fully drained.
func OpenShard(path string, schema []FieldSpec, keyCodec *genome.KeyCodec, logger Logger) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("dbnsfp4: opening %s: %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("dbnsfp4: %s is not gzip-compressed: %w", path, err)
	}
	r, err := NewReader(gz, schema, keyCodec, logger)
	if err != nil {
		gz.Close()
		f.Close()
		return nil, nil, err
	}
	return r, shardCloser{gz: gz, f: f}, nil
}

type shardCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (c shardCloser) Close() error {
	gzErr := c.gz.Close()
	fErr := c.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}
