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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	iceio "github.com/ducklake-go/ducklake-go/io"
)

// parquetFile wraps a pqarrow reader together with the underlying parquet
// file reader so both are released by a single Close.
type parquetFile struct {
	*pqarrow.FileReader

	rdr *file.Reader
}

func (p *parquetFile) Close() error { return p.rdr.Close() }

func openParquet(fs iceio.IO, path string, mem memory.Allocator) (*parquetFile, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}

	rdr, err := file.NewParquetReader(f,
		file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}

	arrRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 1 << 17,
	}, mem)
	if err != nil {
		rdr.Close()

		return nil, fmt.Errorf("%w: %q: %w", ErrFileRead, path, err)
	}

	return &parquetFile{FileReader: arrRdr, rdr: rdr}, nil
}

// projectionIndices maps the requested column names onto field indices of
// the file schema. DuckLake data files hold top-level columns only, so field
// indices coincide with parquet leaf indices. A nil request selects all
// columns (represented by nil indices, which pqarrow treats as "no pruning").
func projectionIndices(schema *arrow.Schema, columns []string) ([]int, error) {
	if columns == nil {
		return nil, nil
	}

	indices := make([]int, len(columns))
	for i, name := range columns {
		idxs := schema.FieldIndices(name)
		if len(idxs) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoSuchColumn, name)
		}
		indices[i] = idxs[0]
	}

	return indices, nil
}
