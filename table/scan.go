// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package table materializes the current contents of a DuckLake table as an
// Arrow table, filtering out positionally deleted rows.
package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/ducklake-go/ducklake-go/catalog"
	iceio "github.com/ducklake-go/ducklake-go/io"
	"golang.org/x/sync/errgroup"
)

// PathResolver turns a catalog file path into one the file system can open.
// Relative DuckLake paths resolve against the client's data path.
type PathResolver func(path string, isRelative bool) (string, error)

// Scan describes a full read of one table's data files. The zero value of
// the optional fields selects sane defaults; Files, FS and TableSchema come
// from the catalog and client.
type Scan struct {
	FS    iceio.IO
	Files []catalog.DataFile

	// TableSchema is the catalog-derived Arrow schema. It is the result
	// schema when the table has no data files, so empty tables are never
	// schema-less.
	TableSchema *arrow.Schema

	// Resolve maps catalog paths to openable ones. Defaults to using
	// catalog paths verbatim (and failing on relative ones).
	Resolve PathResolver

	// Columns optionally projects the result to the named columns, in the
	// given order. Nil reads everything.
	Columns []string

	// PositionColumn is the position column name in delete files.
	// Defaults to DefaultPositionColumn.
	PositionColumn string

	// Concurrency bounds how many data file pipelines run at once.
	// Defaults to GOMAXPROCS.
	Concurrency int

	Mem memory.Allocator
}

func (s *Scan) defaults() (string, int, memory.Allocator) {
	posCol := s.PositionColumn
	if posCol == "" {
		posCol = DefaultPositionColumn
	}

	conc := s.Concurrency
	if conc <= 0 {
		conc = runtime.GOMAXPROCS(0)
	}

	mem := s.Mem
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	return posCol, conc, mem
}

func (s *Scan) resolvePath(path string, isRelative bool) (string, error) {
	if s.Resolve != nil {
		return s.Resolve(path, isRelative)
	}
	if isRelative {
		return "", fmt.Errorf("%w: relative path %q with no resolver configured",
			ErrFileRead, path)
	}

	return path, nil
}

// emptyTable builds a zero-row table from the catalog schema, honoring the
// projection.
func (s *Scan) emptyTable() (arrow.Table, error) {
	if s.TableSchema == nil {
		return nil, errors.New("scan of a table with no data files requires a table schema")
	}

	schema := s.TableSchema
	if s.Columns != nil {
		fields := make([]arrow.Field, len(s.Columns))
		for i, name := range s.Columns {
			idxs := schema.FieldIndices(name)
			if len(idxs) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrNoSuchColumn, name)
			}
			fields[i] = schema.Field(idxs[0])
		}
		schema = arrow.NewSchema(fields, nil)
	}

	return array.NewTableFromRecords(schema, nil), nil
}

// ToArrowTable runs the scan and returns the fully materialized result.
//
// Each data file's pipeline (resolve deletes, read, filter) is independent
// and runs on a bounded worker pool. Results are indexed by file-list
// position, so the final row order is the catalog's file order followed by
// original row order within each file, regardless of which pipeline finishes
// first. The first error cancels all outstanding pipelines and is returned
// alone; partial results are released, never returned.
func (s *Scan) ToArrowTable(ctx context.Context) (arrow.Table, error) {
	if len(s.Files) == 0 {
		return s.emptyTable()
	}

	posCol, conc, mem := s.defaults()

	results := make([][]arrow.Record, len(s.Files))
	releaseResults := func() {
		for _, recs := range results {
			for _, rec := range recs {
				rec.Release()
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)

	for i, f := range s.Files {
		g.Go(func() error {
			recs, err := s.readDataFile(gctx, f, posCol, mem)
			if err != nil {
				return err
			}
			results[i] = recs

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		releaseResults()

		return nil, err
	}

	var (
		schema  *arrow.Schema
		records []arrow.Record
	)
	for _, recs := range results {
		for _, rec := range recs {
			if schema == nil {
				schema = rec.Schema()
			} else if !schema.Equal(rec.Schema()) {
				releaseResults()

				return nil, fmt.Errorf("%w: %s vs %s", ErrSchemaMismatch, schema, rec.Schema())
			}
			records = append(records, rec)
		}
	}

	if schema == nil {
		// all files decoded to zero record batches
		releaseResults()

		return s.emptyTable()
	}

	tbl := array.NewTableFromRecords(schema, records)
	releaseResults()

	return tbl, nil
}

// readDataFile materializes one data file as filtered record batches: it
// resolves the file's delete positions, reads the parquet content and drops
// the deleted rows. When there are no deletes the decoded batches pass
// through untouched.
func (s *Scan) readDataFile(ctx context.Context, f catalog.DataFile, posCol string, mem memory.Allocator) ([]arrow.Record, error) {
	deleted := set[int64]{}
	for _, d := range f.DeleteFiles {
		path, err := s.resolvePath(d.Path, d.PathIsRelative)
		if err != nil {
			return nil, err
		}
		if err := readDeleteFile(ctx, s.FS, path, posCol, mem, deleted); err != nil {
			return nil, err
		}
	}

	for pos := range deleted {
		if pos >= f.RecordCount {
			return nil, fmt.Errorf("%w: position %d out of range for %q (%d rows)",
				ErrBadDeleteFile, pos, f.Path, f.RecordCount)
		}
	}

	path, err := s.resolvePath(f.Path, f.PathIsRelative)
	if err != nil {
		return nil, err
	}

	pf, err := openParquet(s.FS, path, mem)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	fileSchema, err := pf.Schema()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}

	cols, err := projectionIndices(fileSchema, s.Columns)
	if err != nil {
		return nil, err
	}

	rr, err := pf.GetRecordReader(ctx, cols, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}
	defer rr.Release()

	var (
		records []arrow.Record
		offset  int64
	)
	release := func() {
		for _, rec := range records {
			rec.Release()
		}
	}

	for rr.Next() {
		rec := rr.Record()

		if len(deleted) > 0 {
			filtered, err := dropDeletedRows(ctx, mem, rec, deleted, offset)
			if err != nil {
				release()

				return nil, err
			}
			offset += rec.NumRows()
			records = append(records, filtered)

			continue
		}

		rec.Retain()
		offset += rec.NumRows()
		records = append(records, rec)
	}

	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		release()

		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}

	return records, nil
}
