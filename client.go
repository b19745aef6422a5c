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
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/ducklake-go/ducklake-go/catalog"
	iceio "github.com/ducklake-go/ducklake-go/io"
	"github.com/ducklake-go/ducklake-go/table"
)

// Properties is re-exported for convenience when constructing clients.
type Properties = catalog.Properties

// Client reads DuckLake tables through a catalog database handle. It owns
// the handle for its lifetime: Close disposes the connection pool and is
// idempotent. Concurrent metadata queries each check out their own pooled
// connection, so a Client is safe for concurrent use.
type Client struct {
	cat *catalog.Catalog
	fs  iceio.IO
	mem memory.Allocator

	dataPath   string
	posColumn  string
	maxWorkers int

	closeOnce sync.Once
	closeErr  error
}

type Option func(*Client)

// WithDataPath sets the base path that relative catalog file paths resolve
// against, as DataPath/<schema>/<table>/<file>.
func WithDataPath(path string) Option {
	return func(c *Client) { c.dataPath = path }
}

// WithFS overrides the file system used to open data and delete files.
// Defaults to the local file system.
func WithFS(fs iceio.IO) Option {
	return func(c *Client) { c.fs = fs }
}

// WithPositionColumn overrides the name of the row-position column in delete
// files for producers that deviate from the "pos" convention.
func WithPositionColumn(name string) Option {
	return func(c *Client) { c.posColumn = name }
}

// WithMaxWorkers bounds how many data files are scanned concurrently per
// ReadTable call.
func WithMaxWorkers(n int) Option {
	return func(c *Client) { c.maxWorkers = n }
}

func WithAllocator(mem memory.Allocator) Option {
	return func(c *Client) { c.mem = mem }
}

// NewClient wraps an open catalog database handle. The dialect selects bun's
// query generation; the handle's driver can be anything speaking that
// dialect. props are passed through to the catalog (see catalog.NewCatalog).
func NewClient(db *sql.DB, dialect catalog.SupportedDialect, props Properties, opts ...Option) (*Client, error) {
	cat, err := catalog.NewCatalog(db, dialect, props)
	if err != nil {
		return nil, err
	}

	c := &Client{cat: cat, fs: iceio.LocalFS{}, mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close disposes the underlying catalog connection pool.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.cat.Close() })

	return c.closeErr
}

// Catalog exposes the underlying catalog for metadata-only consumers.
func (c *Client) Catalog() *catalog.Catalog { return c.cat }

// CurrentSnapshotID returns the most recent snapshot id in the catalog.
func (c *Client) CurrentSnapshotID(ctx context.Context) (int64, error) {
	return c.cat.CurrentSnapshotID(ctx)
}

// ListSchemas lists the schemas visible at the current snapshot.
func (c *Client) ListSchemas(ctx context.Context) ([]catalog.SchemaEntry, error) {
	snapshotID, err := c.cat.CurrentSnapshotID(ctx)
	if err != nil {
		return nil, err
	}

	return c.cat.ListSchemas(ctx, snapshotID)
}

// ListTables lists the tables of the named schema at the current snapshot.
func (c *Client) ListTables(ctx context.Context, schemaName string) ([]catalog.TableEntry, error) {
	snapshotID, err := c.cat.CurrentSnapshotID(ctx)
	if err != nil {
		return nil, err
	}

	schemaID, err := c.cat.SchemaIDByName(ctx, schemaName, snapshotID)
	if err != nil {
		return nil, err
	}

	return c.cat.ListTables(ctx, schemaID, snapshotID)
}

// TableColumns returns the column metadata of the named table at the current
// snapshot.
func (c *Client) TableColumns(ctx context.Context, schemaName, tableName string) ([]catalog.TableColumn, error) {
	snapshotID, err := c.cat.CurrentSnapshotID(ctx)
	if err != nil {
		return nil, err
	}

	_, tableID, err := c.resolveTable(ctx, schemaName, tableName, snapshotID)
	if err != nil {
		return nil, err
	}

	return c.cat.TableColumns(ctx, tableID, snapshotID)
}

type readConfig struct {
	columns    []string
	snapshotID int64
}

type ReadOption func(*readConfig)

// WithColumns projects the result to the named columns, in the given order.
func WithColumns(names ...string) ReadOption {
	return func(cfg *readConfig) { cfg.columns = names }
}

// WithSnapshotID reads the table as of an explicit snapshot instead of the
// current one.
func WithSnapshotID(id int64) ReadOption {
	return func(cfg *readConfig) { cfg.snapshotID = id }
}

// ReadTable materializes the named table's logical contents at a snapshot:
// every visible data file is read, positionally deleted rows are filtered
// out, and the per-file batches are concatenated in the catalog's file
// order. Callers own the returned table and must Release it.
func (c *Client) ReadTable(ctx context.Context, schemaName, tableName string, opts ...ReadOption) (arrow.Table, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	snapshotID := cfg.snapshotID
	if snapshotID == 0 {
		var err error
		if snapshotID, err = c.cat.CurrentSnapshotID(ctx); err != nil {
			return nil, err
		}
	}

	_, tableID, err := c.resolveTable(ctx, schemaName, tableName, snapshotID)
	if err != nil {
		return nil, err
	}

	files, err := c.cat.DataFiles(ctx, tableID, snapshotID)
	if err != nil {
		return nil, err
	}

	cols, err := c.cat.TableColumns(ctx, tableID, snapshotID)
	if err != nil {
		return nil, err
	}

	tableSchema, err := table.SchemaFromColumns(cols)
	if err != nil {
		return nil, err
	}

	scan := &table.Scan{
		FS:             c.fs,
		Files:          files,
		TableSchema:    tableSchema,
		Resolve:        c.resolver(schemaName, tableName),
		Columns:        cfg.columns,
		PositionColumn: c.posColumn,
		Concurrency:    c.maxWorkers,
		Mem:            c.mem,
	}

	return scan.ToArrowTable(ctx)
}

func (c *Client) resolveTable(ctx context.Context, schemaName, tableName string, snapshotID int64) (schemaID, tableID int64, err error) {
	schemaID, err = c.cat.SchemaIDByName(ctx, schemaName, snapshotID)
	if err != nil {
		return 0, 0, err
	}

	tableID, err = c.cat.TableIDByName(ctx, schemaID, tableName, snapshotID)
	if err != nil {
		return 0, 0, err
	}

	return schemaID, tableID, nil
}

// resolver implements the DuckLake relative path layout:
// <data path>/<schema>/<table>/<file>. Absolute paths pass through
// untouched, with any file:// prefix left for the FS to strip.
func (c *Client) resolver(schemaName, tableName string) table.PathResolver {
	return func(path string, isRelative bool) (string, error) {
		if !isRelative {
			return path, nil
		}
		if c.dataPath == "" {
			return "", fmt.Errorf("relative path %q requires a data path, see WithDataPath", path)
		}

		base := strings.TrimPrefix(c.dataPath, "file://")

		return filepath.Join(base, schemaName, tableName, path), nil
	}
}
