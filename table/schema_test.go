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
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/ducklake-go/ducklake-go/catalog"
	"github.com/ducklake-go/ducklake-go/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFromDuckLake(t *testing.T) {
	tests := []struct {
		name string
		want arrow.DataType
	}{
		{"boolean", arrow.FixedWidthTypes.Boolean},
		{"int8", arrow.PrimitiveTypes.Int8},
		{"tinyint", arrow.PrimitiveTypes.Int8},
		{"int16", arrow.PrimitiveTypes.Int16},
		{"int32", arrow.PrimitiveTypes.Int32},
		{"INTEGER", arrow.PrimitiveTypes.Int32},
		{"int64", arrow.PrimitiveTypes.Int64},
		{"bigint", arrow.PrimitiveTypes.Int64},
		{"uint64", arrow.PrimitiveTypes.Uint64},
		{"float", arrow.PrimitiveTypes.Float32},
		{"double", arrow.PrimitiveTypes.Float64},
		{"varchar", arrow.BinaryTypes.String},
		{"blob", arrow.BinaryTypes.Binary},
		{"date", arrow.FixedWidthTypes.Date32},
		{"time", arrow.FixedWidthTypes.Time64us},
		{"timestamp", &arrow.TimestampType{Unit: arrow.Microsecond}},
		{"timestamptz", &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
		{"uuid", &arrow.FixedSizeBinaryType{ByteWidth: 16}},
		{"decimal(18, 3)", &arrow.Decimal128Type{Precision: 18, Scale: 3}},
		{"decimal(38,0)", &arrow.Decimal128Type{Precision: 38, Scale: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.TypeFromDuckLake(tt.name)
			require.NoError(t, err)
			assert.True(t, arrow.TypeEqual(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestTypeFromDuckLakeUnknown(t *testing.T) {
	_, err := table.TypeFromDuckLake("geometry")
	assert.ErrorContains(t, err, "unsupported DuckLake type")

	_, err = table.TypeFromDuckLake("decimal(18)")
	assert.ErrorContains(t, err, "unsupported DuckLake type")
}

func TestSchemaFromColumns(t *testing.T) {
	cols := []catalog.TableColumn{
		{Name: "id", Type: "bigint", Order: 0},
		{Name: "name", Type: "varchar", Order: 1, Nullable: true},
		{Name: "price", Type: "decimal(10,2)", Order: 2, Nullable: true},
	}

	sc, err := table.SchemaFromColumns(cols)
	require.NoError(t, err)

	want := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "price", Type: &arrow.Decimal128Type{Precision: 10, Scale: 2}, Nullable: true},
	}, nil)
	assert.True(t, want.Equal(sc), "want %s, got %s", want, sc)

	_, err = table.SchemaFromColumns([]catalog.TableColumn{{Name: "g", Type: "geometry"}})
	assert.ErrorContains(t, err, `column "g"`)
}
