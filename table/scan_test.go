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

package table_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/ducklake-go/ducklake-go/catalog"
	iceio "github.com/ducklake-go/ducklake-go/io"
	"github.com/ducklake-go/ducklake-go/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rowSchema = arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	idSchema = arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	posSchema = arrow.NewSchema([]arrow.Field{
		{Name: "pos", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
)

// writeParquet materializes jsonRows (a JSON array of objects matching sc)
// as a parquet file under dir and returns its absolute path.
func writeParquet(t *testing.T, dir, name string, sc *arrow.Schema, jsonRows string) string {
	t.Helper()

	tbl, err := array.TableFromJSON(memory.DefaultAllocator, sc, []string{jsonRows})
	require.NoError(t, err)
	defer tbl.Release()

	path := filepath.Join(dir, name)
	fo, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, pqarrow.WriteTable(tbl, fo, 128, nil, pqarrow.DefaultWriterProps()))

	return path
}

func writeDeletes(t *testing.T, dir, name string, positions ...int64) string {
	t.Helper()

	rows := "["
	for i, pos := range positions {
		if i > 0 {
			rows += ", "
		}
		rows += fmt.Sprintf(`{"pos": %d}`, pos)
	}
	rows += "]"

	return writeParquet(t, dir, name, posSchema, rows)
}

func columnInt64(t *testing.T, tbl arrow.Table, name string) []int64 {
	t.Helper()

	idxs := tbl.Schema().FieldIndices(name)
	require.Len(t, idxs, 1)

	var out []int64
	for _, chunk := range tbl.Column(idxs[0]).Data().Chunks() {
		arr, ok := chunk.(*array.Int64)
		require.True(t, ok, "column %s is %s", name, chunk.DataType())
		out = append(out, arr.Int64Values()...)
	}

	return out
}

func dataFile(path string, recordCount int64, deletePaths ...string) catalog.DataFile {
	f := catalog.DataFile{Path: path, RecordCount: recordCount}
	for _, d := range deletePaths {
		f.DeleteFiles = append(f.DeleteFiles, catalog.DeleteFile{Path: d})
	}

	return f
}

func TestScanNoDeletes(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", rowSchema,
		`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}]`)
	b := writeParquet(t, dir, "b.parquet", rowSchema,
		`[{"id": 4, "name": "d"}, {"id": 5, "name": "e"}]`)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 3), dataFile(b, 2)}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 5, tbl.NumRows())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, columnInt64(t, tbl, "id"))
}

func TestScanWithDeletes(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", rowSchema,
		`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}]`)
	b := writeParquet(t, dir, "b.parquet", rowSchema,
		`[{"id": 4, "name": "d"}, {"id": 5, "name": "e"}, {"id": 6, "name": "f"}, {"id": 7, "name": "g"}]`)
	bDel := writeDeletes(t, dir, "b-del.parquet", 2)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 3), dataFile(b, 4, bDel)}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 6, tbl.NumRows())
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 7}, columnInt64(t, tbl, "id"))
}

func TestScanDeleteUnion(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema,
		`[{"id": 0}, {"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}]`)
	d1 := writeDeletes(t, dir, "del1.parquet", 1, 3)
	d2 := writeDeletes(t, dir, "del2.parquet", 3, 5)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 6, d1, d2)}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	// {1,3} union {3,5}: the doubly deleted position 3 drops exactly once
	assert.Equal(t, []int64{0, 2, 4}, columnInt64(t, tbl, "id"))
}

func TestScanInt32Positions(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema,
		`[{"id": 0}, {"id": 1}, {"id": 2}]`)

	pos32 := arrow.NewSchema([]arrow.Field{
		{Name: "pos", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	del := writeParquet(t, dir, "del.parquet", pos32, `[{"pos": 1}]`)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 3, del)}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []int64{0, 2}, columnInt64(t, tbl, "id"))
}

func TestScanPositionOutOfRange(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema,
		`[{"id": 0}, {"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}]`)
	del := writeDeletes(t, dir, "del.parquet", 10)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 5, del)}}

	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrBadDeleteFile)
	assert.ErrorContains(t, err, "out of range")
}

func TestScanNegativePosition(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema, `[{"id": 0}]`)
	del := writeDeletes(t, dir, "del.parquet", -1)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 1, del)}}

	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrBadDeleteFile)
	assert.ErrorContains(t, err, "negative")
}

func TestScanPositionColumn(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema,
		`[{"id": 0}, {"id": 1}, {"id": 2}]`)

	rowPos := arrow.NewSchema([]arrow.Field{
		{Name: "row_position", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	del := writeParquet(t, dir, "del.parquet", rowPos, `[{"row_position": 0}]`)

	files := []catalog.DataFile{dataFile(a, 3, del)}

	// default position column name is absent from the delete file
	scan := &table.Scan{FS: iceio.LocalFS{}, Files: files}
	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrBadDeleteFile)
	assert.ErrorContains(t, err, `no position column "pos"`)

	// naming it explicitly makes the same file usable
	scan = &table.Scan{FS: iceio.LocalFS{}, Files: files, PositionColumn: "row_position"}
	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []int64{1, 2}, columnInt64(t, tbl, "id"))
}

func TestScanNonIntegerPositions(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", idSchema, `[{"id": 0}]`)

	strPos := arrow.NewSchema([]arrow.Field{
		{Name: "pos", Type: arrow.BinaryTypes.String},
	}, nil)
	del := writeParquet(t, dir, "del.parquet", strPos, `[{"pos": "0"}]`)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 1, del)}}

	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrBadDeleteFile)
	assert.ErrorContains(t, err, "integer")
}

func TestScanSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", rowSchema, `[{"id": 0, "name": "a"}]`)

	other := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.BinaryTypes.String},
	}, nil)
	b := writeParquet(t, dir, "b.parquet", other, `[{"id": "zero"}]`)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 1), dataFile(b, 1)}}

	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrSchemaMismatch)
}

func TestScanMissingFile(t *testing.T) {
	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(filepath.Join(t.TempDir(), "gone.parquet"), 1)}}

	_, err := scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrFileRead)
}

func TestScanEmptyTable(t *testing.T) {
	scan := &table.Scan{FS: iceio.LocalFS{}, TableSchema: rowSchema}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 0, tbl.NumRows())
	assert.True(t, rowSchema.Equal(tbl.Schema()))
}

func TestScanEmptyTableProjection(t *testing.T) {
	scan := &table.Scan{FS: iceio.LocalFS{}, TableSchema: rowSchema,
		Columns: []string{"name"}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 0, tbl.NumRows())
	require.EqualValues(t, 1, tbl.NumCols())
	assert.Equal(t, "name", tbl.Schema().Field(0).Name)

	scan.Columns = []string{"nope"}
	_, err = scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrNoSuchColumn)
}

func TestScanProjection(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", rowSchema,
		`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}]`)
	del := writeDeletes(t, dir, "del.parquet", 1)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files:   []catalog.DataFile{dataFile(a, 3, del)},
		Columns: []string{"id"}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	require.EqualValues(t, 1, tbl.NumCols())
	assert.Equal(t, []int64{1, 3}, columnInt64(t, tbl, "id"))

	scan.Columns = []string{"nope"}
	_, err = scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrNoSuchColumn)
}

func TestScanRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, dir, "a.parquet", idSchema, `[{"id": 1}]`)

	files := []catalog.DataFile{{Path: "a.parquet", PathIsRelative: true, RecordCount: 1}}

	scan := &table.Scan{FS: iceio.LocalFS{}, Files: files,
		Resolve: func(path string, isRelative bool) (string, error) {
			if isRelative {
				return filepath.Join(dir, path), nil
			}

			return path, nil
		}}

	tbl, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []int64{1}, columnInt64(t, tbl, "id"))

	// without a resolver relative paths are unreadable
	scan.Resolve = nil
	_, err = scan.ToArrowTable(context.Background())
	assert.ErrorIs(t, err, table.ErrFileRead)
}

func TestScanOrderIsDeterministic(t *testing.T) {
	dir := t.TempDir()

	const numFiles = 8
	files := make([]catalog.DataFile, numFiles)
	for i := range files {
		path := writeParquet(t, dir, fmt.Sprintf("f%d.parquet", i), idSchema,
			fmt.Sprintf(`[{"id": %d}]`, i))
		files[i] = dataFile(path, 1)
	}

	scan := &table.Scan{FS: iceio.LocalFS{}, Files: files, Concurrency: 4}

	want := []int64{0, 1, 2, 3, 4, 5, 6, 7}
	for range 3 {
		tbl, err := scan.ToArrowTable(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, columnInt64(t, tbl, "id"))
		tbl.Release()
	}
}

func TestScanIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	a := writeParquet(t, dir, "a.parquet", rowSchema,
		`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}]`)
	del := writeDeletes(t, dir, "del.parquet", 0, 2)

	scan := &table.Scan{FS: iceio.LocalFS{},
		Files: []catalog.DataFile{dataFile(a, 3, del)}}

	first, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer first.Release()

	second, err := scan.ToArrowTable(context.Background())
	require.NoError(t, err)
	defer second.Release()

	assert.Equal(t, columnInt64(t, first, "id"), columnInt64(t, second, "id"))
}
