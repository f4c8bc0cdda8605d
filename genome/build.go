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

// Package genome provides the reference-build chromosome tables and
// the key codec that maps (chromosome, position) pairs into the
// dense 32-bit address space used by the block store.
package genome

import "fmt"

// Chrom describes one chromosome's slice of a Build's address space.
type Chrom struct {
	// Name is the chromosome name, e.g. "chr1", "chrX", "chrM".
	Name string
	// Start is the first address assigned to this chromosome.
	Start uint32
	// BoundLength is a power-of-two-aligned upper bound on the
	// number of addresses reserved for this chromosome; it is always
	// >= RealLength and safe to use for key arithmetic.
	BoundLength uint32
	// RealLength is the biological sequence length.
	RealLength uint32
}

// Build is a named, immutable table of chromosomes sorted by Start.
//
// Build satisfies Start[i]+BoundLength[i] <= Start[i+1] for all i,
// and the sum of all BoundLength values never exceeds 1<<32.
type Build struct {
	Name   string
	Chroms []Chrom

	starts []uint32 // parallel to Chroms, kept for binary search
	byName map[string]int
}

func newBuild(name string, chroms []Chrom) *Build {
	b := &Build{
		Name:   name,
		Chroms: chroms,
		starts: make([]uint32, len(chroms)),
		byName: make(map[string]int, len(chroms)),
	}
	for i, c := range chroms {
		b.starts[i] = c.Start
		b.byName[c.Name] = i
	}
	return b
}

// index returns the index of chrom within the build's table.
func (b *Build) index(chrom string) (int, bool) {
	i, ok := b.byName[chrom]
	return i, ok
}

const mib = 1 << 20

// roundUpMiB rounds n up to the nearest multiple of 1 MiB, giving a
// power-of-two-aligned upper bound suitable as a BoundLength.
func roundUpMiB(n uint32) uint32 {
	return (n + mib - 1) / mib * mib
}

// buildTable lays out chroms in the given order back to back, each
// chromosome's BoundLength rounded up to the next MiB boundary,
// starting at the given base address.
func buildTable(base uint32, order []Chrom) []Chrom {
	out := make([]Chrom, len(order))
	addr := base
	for i, c := range order {
		bound := c.BoundLength
		if bound == 0 {
			bound = roundUpMiB(c.RealLength)
		}
		out[i] = Chrom{Name: c.Name, Start: addr, BoundLength: bound, RealLength: c.RealLength}
		addr += bound
	}
	return out
}

// reservedPrefix is the address range [0, reservedPrefix) that no
// chromosome ever occupies; it is the "reserved prefix for
// chrM-aligned padding" named in the key-encoding invariant: the
// table's first entry (chrM, which sorts before every numbered
// chromosome in address space) begins at reservedPrefix, not at 0,
// so that an address below it is unambiguously invalid.
const reservedPrefix = 1024

// chrMBound is the fixed reserved span for chrM. It is deliberately
// much larger than chrM's real length: chrM sits first in address
// space purely so the reserved-prefix trick above works, and with
// this bound chr1 begins at reservedPrefix + 3 MiB (0x00300400).
const chrMBound = 3 * mib

func mitochondrial(realLength uint32) Chrom {
	return Chrom{Name: "chrM", Start: reservedPrefix, BoundLength: chrMBound, RealLength: realLength}
}

// HG19 is the GRCh37/hg19 reference build.
var HG19 = func() *Build {
	chrM := mitochondrial(16571)
	rest := buildTable(chrM.Start+chrM.BoundLength, []Chrom{
		{Name: "chr1", RealLength: 249250621},
		{Name: "chr2", RealLength: 243199373},
		{Name: "chr3", RealLength: 198022430},
		{Name: "chr4", RealLength: 191154276},
		{Name: "chr5", RealLength: 180915260},
		{Name: "chr6", RealLength: 171115067},
		{Name: "chr7", RealLength: 159138663},
		{Name: "chr8", RealLength: 146364022},
		{Name: "chr9", RealLength: 141213431},
		{Name: "chr10", RealLength: 135534747},
		{Name: "chr11", RealLength: 135006516},
		{Name: "chr12", RealLength: 133851895},
		{Name: "chr13", RealLength: 115169878},
		{Name: "chr14", RealLength: 107349540},
		{Name: "chr15", RealLength: 102531392},
		{Name: "chr16", RealLength: 90354753},
		{Name: "chr17", RealLength: 81195210},
		{Name: "chr18", RealLength: 78077248},
		{Name: "chr19", RealLength: 59128983},
		{Name: "chr20", RealLength: 63025520},
		{Name: "chr21", RealLength: 48129895},
		{Name: "chr22", RealLength: 51304566},
		{Name: "chrX", RealLength: 155270560},
		{Name: "chrY", RealLength: 59373566},
	})
	return newBuild("hg19", append([]Chrom{chrM}, rest...))
}()

// HG38 is the GRCh38/hg38 reference build.
//
// Worked example (see TestEncodeHG38Worked): on this build,
// Encode("chr1", 1000) == 0x003007E8, since chr1 starts at
// 0x00300400 (reservedPrefix + chrMBound) and 0x00300400+0x3E8 ==
// 0x003007E8.
var HG38 = func() *Build {
	chrM := mitochondrial(16569)
	rest := buildTable(chrM.Start+chrM.BoundLength, []Chrom{
		{Name: "chr1", RealLength: 248956422},
		{Name: "chr2", RealLength: 242193529},
		{Name: "chr3", RealLength: 198295559},
		{Name: "chr4", RealLength: 190214555},
		{Name: "chr5", RealLength: 181538259},
		{Name: "chr6", RealLength: 170805979},
		{Name: "chr7", RealLength: 159345973},
		{Name: "chr8", RealLength: 145138636},
		{Name: "chr9", RealLength: 138394717},
		{Name: "chr10", RealLength: 133797422},
		{Name: "chr11", RealLength: 135086622},
		{Name: "chr12", RealLength: 133275309},
		{Name: "chr13", RealLength: 114364328},
		{Name: "chr14", RealLength: 107043718},
		{Name: "chr15", RealLength: 101991189},
		{Name: "chr16", RealLength: 90338345},
		{Name: "chr17", RealLength: 83257441},
		{Name: "chr18", RealLength: 80373285},
		{Name: "chr19", RealLength: 58617616},
		{Name: "chr20", RealLength: 64444167},
		{Name: "chr21", RealLength: 46709983},
		{Name: "chr22", RealLength: 50818468},
		{Name: "chrX", RealLength: 156040895},
		{Name: "chrY", RealLength: 57227415},
	})
	return newBuild("hg38", append([]Chrom{chrM}, rest...))
}()

// ByName returns the named reference build ("hg19" or "hg38").
func ByName(name string) (*Build, error) {
	switch name {
	case "hg19":
		return HG19, nil
	case "hg38":
		return HG38, nil
	default:
		return nil, fmt.Errorf("genome: unknown reference build %q", name)
	}
}
