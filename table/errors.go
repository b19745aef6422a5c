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

import "errors"

var (
	// ErrBadDeleteFile is returned when a delete file is malformed: the
	// position column is missing or not an integer type, or a recorded
	// position is outside the valid row range of its data file. A scan never
	// silently skips such data, since doing so would return rows that are
	// logically deleted (or drop rows that are not).
	ErrBadDeleteFile = errors.New("invalid delete file")

	// ErrSchemaMismatch is returned when the data files of one table do not
	// all share an identical Arrow schema.
	ErrSchemaMismatch = errors.New("data file schemas do not match")

	// ErrFileRead wraps storage and decoding failures from the underlying
	// file system or parquet reader.
	ErrFileRead = errors.New("failed reading file")

	// ErrNoSuchColumn is returned when a projected column name does not
	// exist in the table.
	ErrNoSuchColumn = errors.New("column does not exist")
)
