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

// Package io defines the file system abstraction used to read DuckLake data
// and delete files.
package io

import (
	"fmt"
	"io"
	"net/url"
)

// File is the interface a file must satisfy for the parquet reader: random
// access plus seeking, closed by the caller when materialization finishes.
type File interface {
	io.ReadSeekCloser
	io.ReaderAt
}

// IO is the minimal read-only file system interface consumed by the scanner.
type IO interface {
	Open(name string) (File, error)
}

// LoadFS infers an IO implementation from the location's URI scheme.
//
// A scheme of "file://" or an empty string results in a LocalFS
// implementation. Other schemes return an error; callers with data on object
// stores supply their own IO.
func LoadFS(location string) (IO, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return nil, err
	}

	switch parsed.Scheme {
	case "file", "":
		return LocalFS{}, nil
	default:
		return nil, fmt.Errorf("IO for location '%s' not implemented", location)
	}
}
