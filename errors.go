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

package ducklake

import (
	"github.com/ducklake-go/ducklake-go/catalog"
	"github.com/ducklake-go/ducklake-go/table"
)

// Aliases for the sentinel errors of the subpackages, so callers can match
// every failure mode of ReadTable with errors.Is against this package alone.
//
// A ReadTable call either returns a fully materialized, fully filtered table
// or exactly one of these errors; there is no partial result.
var (
	ErrNoSnapshots    = catalog.ErrNoSnapshots
	ErrNoSuchSchema   = catalog.ErrNoSuchSchema
	ErrNoSuchTable    = catalog.ErrNoSuchTable
	ErrBadDeleteFile  = table.ErrBadDeleteFile
	ErrSchemaMismatch = table.ErrSchemaMismatch
	ErrFileRead       = table.ErrFileRead
	ErrNoSuchColumn   = table.ErrNoSuchColumn
)
