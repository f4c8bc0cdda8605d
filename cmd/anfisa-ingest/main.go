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

// Command anfisa-ingest loads one or more gzip-compressed DBNSFP4
// shards into a store.IOController, merging them into a single
// globally ordered stream keyed by genomic address.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/praefrontalis/Anfisa-Annotations/blockcodec"
	"github.com/praefrontalis/Anfisa-Annotations/dbnsfp4"
	"github.com/praefrontalis/Anfisa-Annotations/genome"
	"github.com/praefrontalis/Anfisa-Annotations/kvengine/memkv"
	"github.com/praefrontalis/Anfisa-Annotations/merge"
	"github.com/praefrontalis/Anfisa-Annotations/recenc"
	"github.com/praefrontalis/Anfisa-Annotations/store"
)

var (
	dashBuild     string
	dashSchema    string
	dashCacheSize int
	dashSpan      int
	dashVerbose   bool
)

func init() {
	flag.StringVar(&dashBuild, "build", "hg38", "reference build (hg19 or hg38)")
	flag.StringVar(&dashSchema, "schema", "dbnsfp4", "storage schema name")
	flag.IntVar(&dashCacheSize, "cache-size", store.DefaultCacheSize, "read-block cache bound")
	flag.IntVar(&dashSpan, "span", 1<<16, "range block codec address span")
	flag.BoolVar(&dashVerbose, "v", false, "log per-shard progress")
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: anfisa-ingest [flags] <shard-file-or-glob>")
		os.Exit(1)
	}

	start := time.Now()
	logger := log.New(os.Stderr, "anfisa-ingest: ", log.LstdFlags)

	paths, err := extendFileList(flag.Arg(0))
	if err != nil {
		log.Fatalf("anfisa-ingest: %s", err)
	}
	if len(paths) == 0 {
		log.Fatalf("anfisa-ingest: no shard files matched %q", flag.Arg(0))
	}

	build, err := genome.ByName(dashBuild)
	if err != nil {
		log.Fatalf("anfisa-ingest: %s", err)
	}
	keyCodec := genome.NewKeyCodec(build)

	readers := make([]merge.SubReader, 0, len(paths))
	closers := make([]func() error, 0, len(paths))
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	for _, p := range paths {
		chrom, err := detectFileChrom(p)
		if err != nil {
			log.Fatalf("anfisa-ingest: %s", err)
		}
		if dashVerbose {
			logger.Printf("opening %s (detected %s)", p, chrom)
		}
		r, closer, err := dbnsfp4.OpenShard(p, dbnsfp4.DefaultSchema, keyCodec, logger)
		if err != nil {
			log.Fatalf("anfisa-ingest: %s", err)
		}
		readers = append(readers, r)
		closers = append(closers, closer.Close)
	}

	joined, err := merge.NewJoinedReader(readers)
	if err != nil {
		log.Fatalf("anfisa-ingest: merging shards: %s", err)
	}

	codec := &blockcodec.RangeBlockCodec{Span: uint32(dashSpan), Codec: recenc.JSONCodec{}}
	ctrl, err := store.Open(memkv.NewOpener(), store.Descriptor{
		Schema:    dashSchema,
		WriteMode: true,
		WithStr:   false,
		CacheSize: dashCacheSize,
		Build:     dashBuild,
		BlockType: "range",
	}, keyCodec, codec, recenc.DefaultDecodeEnvFactory, logger)
	if err != nil {
		log.Fatalf("anfisa-ingest: opening storage: %s", err)
	}

	recordCodec := recenc.JSONCodec{}
	count := 0
	for {
		key, records, err := joined.NextOne()
		if err != nil {
			break
		}
		for _, rec := range records {
			if err := ctrl.PutRecord(key, rec, recordCodec); err != nil {
				log.Fatalf("anfisa-ingest: writing record at %x: %s", key, err)
			}
		}
		count++
	}
	if err := ctrl.Close(); err != nil {
		log.Fatalf("anfisa-ingest: closing storage: %s", err)
	}

	shortRows := 0
	for _, r := range readers {
		if dr, ok := r.(*dbnsfp4.Reader); ok {
			shortRows += dr.ShortRows()
		}
	}
	reportTime(logger, start, len(paths), count, shortRows)
}

// extendFileList expands pattern via filepath.Glob into a sorted,
// deduplicated list of shard file paths.
func extendFileList(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("anfisa-ingest: bad glob %q: %w", pattern, err)
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func reportTime(logger *log.Logger, start time.Time, files, records, shortRows int) {
	elapsed := time.Since(start)
	logger.Printf("ingested %d file(s), %d record(s), %d short row(s) skipped, in %s",
		files, records, shortRows, elapsed.Round(time.Millisecond))
}
