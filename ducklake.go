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

// Package ducklake is a read-only client for DuckLake tables.
//
// A DuckLake table consists of immutable parquet data files plus positional
// delete files, tracked by a set of catalog tables stored in an ordinary SQL
// database. This package reconstructs the current logical contents of a table
// from that metadata and materializes it as an in-memory Arrow table, with
// deleted row positions filtered out before any rows are surfaced.
//
// The catalog database is accessed through uptrace/bun and the data files are
// read through Apache Arrow's parquet support, so results interoperate
// directly with the rest of the Arrow ecosystem.
package ducklake

const Version = "0.1.0"
