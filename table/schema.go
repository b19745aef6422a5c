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
	"regexp"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/ducklake-go/ducklake-go/catalog"
)

var decimalRegex = regexp.MustCompile(`^decimal\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

// TypeFromDuckLake maps a DuckLake column type name (as stored in
// ducklake_column.column_type) to the Arrow type the parquet reader produces
// for it. DuckDB's aliases for the same types are accepted as well.
func TypeFromDuckLake(name string) (arrow.DataType, error) {
	s := strings.ToLower(strings.TrimSpace(name))

	if m := decimalRegex.FindStringSubmatch(s); m != nil {
		prec, _ := strconv.ParseInt(m[1], 10, 32)
		scale, _ := strconv.ParseInt(m[2], 10, 32)

		return &arrow.Decimal128Type{Precision: int32(prec), Scale: int32(scale)}, nil
	}

	switch s {
	case "boolean", "bool":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int8", "tinyint":
		return arrow.PrimitiveTypes.Int8, nil
	case "int16", "smallint":
		return arrow.PrimitiveTypes.Int16, nil
	case "int32", "int", "integer":
		return arrow.PrimitiveTypes.Int32, nil
	case "int64", "bigint":
		return arrow.PrimitiveTypes.Int64, nil
	case "uint8", "utinyint":
		return arrow.PrimitiveTypes.Uint8, nil
	case "uint16", "usmallint":
		return arrow.PrimitiveTypes.Uint16, nil
	case "uint32", "uinteger":
		return arrow.PrimitiveTypes.Uint32, nil
	case "uint64", "ubigint":
		return arrow.PrimitiveTypes.Uint64, nil
	case "float32", "float", "real":
		return arrow.PrimitiveTypes.Float32, nil
	case "float64", "double":
		return arrow.PrimitiveTypes.Float64, nil
	case "varchar", "string", "text":
		return arrow.BinaryTypes.String, nil
	case "blob", "binary", "bytea":
		return arrow.BinaryTypes.Binary, nil
	case "date":
		return arrow.FixedWidthTypes.Date32, nil
	case "time":
		return arrow.FixedWidthTypes.Time64us, nil
	case "timestamp":
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case "timestamptz":
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case "uuid":
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	default:
		return nil, fmt.Errorf("unsupported DuckLake type: %s", name)
	}
}

// SchemaFromColumns builds the Arrow schema for a table from its catalog
// column metadata. This is what gives an empty table a concrete schema even
// though there are no data files to read one from.
func SchemaFromColumns(cols []catalog.TableColumn) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		typ, err := TypeFromDuckLake(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}

		fields[i] = arrow.Field{Name: col.Name, Type: typ, Nullable: col.Nullable}
	}

	return arrow.NewSchema(fields, nil), nil
}
