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

// DefaultSchema declares the representative subset of DBNSFP4
// columns this ingest reader resolves by default. The real DBNSFP4
// catalog carries several hundred annotation columns; a production
// deployment supplies its own field list (typically from the IO
// descriptor's ingest configuration) rather than relying on this
// default, which exists for the standalone CLI and the package's own
// tests.
var DefaultSchema = []FieldSpec{
	{Name: "REF", Type: TypeStr, Tab: TabVariant},
	{Name: "ALT", Type: TypeStr, Tab: TabVariant},
	{Name: "aaref", Type: TypeStr, Tab: TabVariant},
	{Name: "aaalt", Type: TypeStr, Tab: TabVariant},

	{Name: "genename", Type: TypeStr, Tab: TabFacet},
	{Name: "SIFT_score", Type: TypeFloat, Tab: TabFacet},
	{Name: "Polyphen2_HDIV_score", Type: TypeFloat, Tab: TabFacet},

	{Name: "Ensembl_transcriptid", Type: TypeStr, Tab: TabTranscript},
	{Name: "SIFT_pred", Type: TypeStr, Tab: TabTranscript},
}
