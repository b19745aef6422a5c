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

// Package catalog provides read-only access to the DuckLake catalog tables
// that describe which data files and delete files make up a table snapshot.
package catalog

import (
	"errors"
	"strconv"
)

var (
	// ErrNoSnapshots is returned when the catalog contains no snapshots at all.
	ErrNoSnapshots = errors.New("no snapshots found in the catalog")
	// ErrNoSuchSchema is returned when a schema does not exist at the requested snapshot.
	ErrNoSuchSchema = errors.New("schema does not exist")
	// ErrNoSuchTable is returned when a table does not exist at the requested snapshot.
	ErrNoSuchTable = errors.New("table does not exist")
)

// Identifier names a table as a (schema, table) pair.
type Identifier struct {
	Schema string
	Table  string
}

func (id Identifier) String() string { return id.Schema + "." + id.Table }

// SchemaEntry is one row of ducklake_schema visible at a snapshot.
type SchemaEntry struct {
	ID   int64
	Name string
}

// TableEntry is one row of ducklake_table visible at a snapshot.
type TableEntry struct {
	ID       int64
	SchemaID int64
	Name     string
}

// TableColumn describes one top-level column of a table. Type holds the
// DuckLake type name exactly as stored in ducklake_column.
type TableColumn struct {
	ID       int64
	Name     string
	Type     string
	Order    int64
	Nullable bool
}

// DataFile is one immutable data file contributing rows to a table, together
// with the positional delete files that apply to it at the queried snapshot.
type DataFile struct {
	ID             int64
	Path           string
	PathIsRelative bool
	RecordCount    int64
	DeleteFiles    []DeleteFile
}

// DeleteFile records row positions logically deleted from one data file.
// DuckLake delete files are always positional.
type DeleteFile struct {
	ID             int64
	DataFileID     int64
	Path           string
	PathIsRelative bool
}

// Properties is a generic key/value bag for catalog configuration.
type Properties map[string]string

// Get returns the value of the key if it exists, otherwise it returns the default value.
func (p Properties) Get(key, defVal string) string {
	if v, ok := p[key]; ok {
		return v
	}

	return defVal
}

func (p Properties) GetBool(key string, defVal bool) bool {
	if v, ok := p[key]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return defVal
		}

		return b
	}

	return defVal
}

func (p Properties) GetInt(key string, defVal int) int {
	if v, ok := p[key]; ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return defVal
		}

		return int(i)
	}

	return defVal
}
