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

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrChromDetectionFailed is returned by detectFileChrom when no
// recognizable chromosome token is found in a shard's filename.
var ErrChromDetectionFailed = errors.New("anfisa-ingest: chromosome detection failed")

// chromPattern matches a "chr" hint followed by one of the accepted
// chromosome tokens (1..22, M, X, Y), anchored on both sides by the
// start or end of the name or by a non-alphanumeric character ("_"
// counts as a separator here, unlike in a regexp \b). The longer
// two-digit alternatives are listed before their single-digit
// prefixes so "chr11" resolves to "11" rather than "1".
var chromPattern = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])chr[-_.]?(1[0-9]|2[0-2]|[1-9]|M|X|Y)(?:[^a-z0-9]|$)`)

// detectFileChrom infers the chromosome a shard filename names, for
// operator-facing logging only -- the authoritative chromosome for
// each record still comes from the shard's own column 0.
func detectFileChrom(path string) (string, error) {
	name := filepath.Base(path)
	m := chromPattern.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrChromDetectionFailed, name)
	}
	return "chr" + strings.ToUpper(m[1]), nil
}
