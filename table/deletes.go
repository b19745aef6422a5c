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

package table

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	iceio "github.com/ducklake-go/ducklake-go/io"
)

// DefaultPositionColumn is the column name DuckLake delete files use for the
// zero-based row position within the target data file. Producers may deviate,
// so scans accept an override.
const DefaultPositionColumn = "pos"

type set[T comparable] map[T]struct{}

// readDeleteFile reads one positional delete file and unions its positions
// into out. Deleting an already-deleted position is a no-op.
func readDeleteFile(ctx context.Context, fs iceio.IO, path, posColumn string, mem memory.Allocator, out set[int64]) error {
	pf, err := openParquet(fs, path, mem)
	if err != nil {
		return err
	}
	defer pf.Close()

	tbl, err := pf.ReadTable(ctx)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}
	defer tbl.Release()

	idxs := tbl.Schema().FieldIndices(posColumn)
	if len(idxs) == 0 {
		return fmt.Errorf("%w: %q has no position column %q",
			ErrBadDeleteFile, path, posColumn)
	}

	for _, chunk := range tbl.Column(idxs[0]).Data().Chunks() {
		switch arr := chunk.(type) {
		case *array.Int64:
			for _, pos := range arr.Int64Values() {
				if pos < 0 {
					return fmt.Errorf("%w: %q contains negative position %d",
						ErrBadDeleteFile, path, pos)
				}
				out[pos] = struct{}{}
			}
		case *array.Int32:
			for _, pos := range arr.Int32Values() {
				if pos < 0 {
					return fmt.Errorf("%w: %q contains negative position %d",
						ErrBadDeleteFile, path, pos)
				}
				out[int64(pos)] = struct{}{}
			}
		default:
			return fmt.Errorf("%w: position column %q in %q must be an integer type, got %s",
				ErrBadDeleteFile, posColumn, path, chunk.DataType())
		}
	}

	return nil
}

// keepIndices builds the take indices for rows [start, end) that are not in
// the deleted set, preserving original row order.
func keepIndices(mem memory.Allocator, deleted set[int64], start, end int64) arrow.Array {
	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()

	for i := start; i < end; i++ {
		if _, ok := deleted[i]; !ok {
			bldr.Append(i - start)
		}
	}

	return bldr.NewArray()
}

// dropDeletedRows returns a record containing only the rows of rec whose
// absolute position (offset plus row index) is not in the deleted set.
func dropDeletedRows(ctx context.Context, mem memory.Allocator, rec arrow.Record, deleted set[int64], offset int64) (arrow.Record, error) {
	indices := keepIndices(mem, deleted, offset, offset+rec.NumRows())
	defer indices.Release()

	out, err := compute.Take(ctx, *compute.DefaultTakeOptions(),
		compute.NewDatumWithoutOwning(rec), compute.NewDatumWithoutOwning(indices))
	if err != nil {
		return nil, err
	}

	return out.(*compute.RecordDatum).Value, nil
}
