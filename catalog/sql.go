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

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

type SupportedDialect string

const (
	Postgres SupportedDialect = "postgres"
	MySQL    SupportedDialect = "mysql"
	SQLite   SupportedDialect = "sqlite"
)

const initCatalogTablesKey = "init_catalog_tables"

var (
	dialects  = map[SupportedDialect]schema.Dialect{}
	dialectMx sync.Mutex
)

func createDialect(d SupportedDialect) schema.Dialect {
	switch d {
	case Postgres:
		return pgdialect.New()
	case MySQL:
		return mysqldialect.New()
	case SQLite:
		return sqlitedialect.New()
	default:
		panic("unsupported sql dialect")
	}
}

func getDialect(d SupportedDialect) schema.Dialect {
	dialectMx.Lock()
	defer dialectMx.Unlock()
	ret, ok := dialects[d]
	if !ok {
		ret = createDialect(d)
		dialects[d] = ret
	}

	return ret
}

// Models for the DuckLake catalog tables. Only the columns this client reads
// are mapped; the on-disk schema is owned by the DuckLake writer.

type sqlSnapshot struct {
	bun.BaseModel `bun:"table:ducklake_snapshot"`

	SnapshotID    int64     `bun:"snapshot_id,pk"`
	SnapshotTime  time.Time `bun:"snapshot_time,nullzero"`
	SchemaVersion int64     `bun:"schema_version"`
}

type sqlSchema struct {
	bun.BaseModel `bun:"table:ducklake_schema"`

	SchemaID      int64         `bun:"schema_id,pk"`
	SchemaName    string        `bun:"schema_name"`
	BeginSnapshot int64         `bun:"begin_snapshot"`
	EndSnapshot   sql.NullInt64 `bun:"end_snapshot"`
}

type sqlTable struct {
	bun.BaseModel `bun:"table:ducklake_table"`

	TableID       int64         `bun:"table_id,pk"`
	SchemaID      int64         `bun:"schema_id"`
	TableName     string        `bun:"table_name"`
	BeginSnapshot int64         `bun:"begin_snapshot"`
	EndSnapshot   sql.NullInt64 `bun:"end_snapshot"`
}

type sqlColumn struct {
	bun.BaseModel `bun:"table:ducklake_column"`

	ColumnID      int64         `bun:"column_id"`
	TableID       int64         `bun:"table_id"`
	ColumnOrder   int64         `bun:"column_order"`
	ColumnName    string        `bun:"column_name"`
	ColumnType    string        `bun:"column_type"`
	NullsAllowed  bool          `bun:"nulls_allowed"`
	ParentColumn  sql.NullInt64 `bun:"parent_column"`
	BeginSnapshot int64         `bun:"begin_snapshot"`
	EndSnapshot   sql.NullInt64 `bun:"end_snapshot"`
}

type sqlDataFile struct {
	bun.BaseModel `bun:"table:ducklake_data_file"`

	DataFileID     int64         `bun:"data_file_id,pk"`
	TableID        int64         `bun:"table_id"`
	FileOrder      sql.NullInt64 `bun:"file_order"`
	Path           string        `bun:"path"`
	PathIsRelative bool          `bun:"path_is_relative"`
	FileFormat     string        `bun:"file_format"`
	RecordCount    int64         `bun:"record_count"`
	FileSizeBytes  int64         `bun:"file_size_bytes"`
	BeginSnapshot  int64         `bun:"begin_snapshot"`
	EndSnapshot    sql.NullInt64 `bun:"end_snapshot"`
}

type sqlDeleteFile struct {
	bun.BaseModel `bun:"table:ducklake_delete_file"`

	DeleteFileID   int64         `bun:"delete_file_id,pk"`
	TableID        int64         `bun:"table_id"`
	DataFileID     int64         `bun:"data_file_id"`
	Path           string        `bun:"path"`
	PathIsRelative bool          `bun:"path_is_relative"`
	Format         string        `bun:"format"`
	DeleteCount    int64         `bun:"delete_count"`
	FileSizeBytes  int64         `bun:"file_size_bytes"`
	BeginSnapshot  int64         `bun:"begin_snapshot"`
	EndSnapshot    sql.NullInt64 `bun:"end_snapshot"`
}

func withReadTx[R any](ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) (R, error)) (result R, err error) {
	err = db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		var ferr error
		result, ferr = fn(ctx, tx)

		return ferr
	})

	return
}

// visible restricts a query to rows that exist at the given snapshot, i.e.
// begin_snapshot <= snapshotID < end_snapshot (NULL end means still current).
func visible(q *bun.SelectQuery, snapshotID int64) *bun.SelectQuery {
	return q.Where("? >= begin_snapshot", snapshotID).
		Where("(? < end_snapshot OR end_snapshot IS NULL)", snapshotID)
}

// Catalog reads DuckLake metadata from a SQL database. All queries run inside
// read-only transactions; the catalog never mutates DuckLake state.
type Catalog struct {
	db    *bun.DB
	props Properties
}

// NewCatalog wraps the provided database handle with the bun query builder
// for the chosen dialect.
//
// If the "init_catalog_tables" property is "true", the DuckLake catalog
// tables are created if they do not already exist. A DuckLake writer normally
// owns those tables, so this is off by default and meant for tests and local
// experimentation.
//
// The environment variable DUCKLAKE_SQL_DEBUG can be set to log catalog
// queries to the terminal:
//   - DUCKLAKE_SQL_DEBUG=1 logs only failed queries
//   - DUCKLAKE_SQL_DEBUG=2 logs all queries
func NewCatalog(db *sql.DB, dialect SupportedDialect, props Properties) (c *Catalog, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to create catalog: %v", r)
		}
	}()

	cat := &Catalog{db: bun.NewDB(db, getDialect(dialect)), props: props}

	cat.db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("DUCKLAKE_SQL_DEBUG")))

	if cat.props.GetBool(initCatalogTablesKey, false) {
		return cat, cat.CreateCatalogTables(context.Background())
	}

	return cat, nil
}

// DB exposes the underlying bun handle, mainly so tests and tooling can seed
// or inspect catalog contents.
func (c *Catalog) DB() *bun.DB { return c.db }

// Close closes the underlying database handle and its connection pool.
func (c *Catalog) Close() error { return c.db.Close() }

func (c *Catalog) CreateCatalogTables(ctx context.Context) error {
	for _, model := range []any{
		(*sqlSnapshot)(nil),
		(*sqlSchema)(nil),
		(*sqlTable)(nil),
		(*sqlColumn)(nil),
		(*sqlDataFile)(nil),
		(*sqlDeleteFile)(nil),
	} {
		if _, err := c.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (c *Catalog) DropCatalogTables(ctx context.Context) error {
	for _, model := range []any{
		(*sqlSnapshot)(nil),
		(*sqlSchema)(nil),
		(*sqlTable)(nil),
		(*sqlColumn)(nil),
		(*sqlDataFile)(nil),
		(*sqlDeleteFile)(nil),
	} {
		if _, err := c.db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// CurrentSnapshotID returns the most recent snapshot id.
func (c *Catalog) CurrentSnapshotID(ctx context.Context) (int64, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) (int64, error) {
		var id sql.NullInt64
		err := tx.NewSelect().Model((*sqlSnapshot)(nil)).
			ColumnExpr("max(snapshot_id)").Scan(ctx, &id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, ErrNoSnapshots
			}

			return 0, err
		}
		if !id.Valid {
			return 0, ErrNoSnapshots
		}

		return id.Int64, nil
	})
}

// ListSchemas returns all schemas visible at the given snapshot.
func (c *Catalog) ListSchemas(ctx context.Context, snapshotID int64) ([]SchemaEntry, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]SchemaEntry, error) {
		var models []sqlSchema
		err := visible(tx.NewSelect().Model(&models), snapshotID).
			Order("schema_id").Scan(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]SchemaEntry, len(models))
		for i, m := range models {
			out[i] = SchemaEntry{ID: m.SchemaID, Name: m.SchemaName}
		}

		return out, nil
	})
}

// ListTables returns all tables of a schema visible at the given snapshot.
func (c *Catalog) ListTables(ctx context.Context, schemaID, snapshotID int64) ([]TableEntry, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]TableEntry, error) {
		var models []sqlTable
		err := visible(tx.NewSelect().Model(&models), snapshotID).
			Where("schema_id = ?", schemaID).
			Order("table_id").Scan(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]TableEntry, len(models))
		for i, m := range models {
			out[i] = TableEntry{ID: m.TableID, SchemaID: m.SchemaID, Name: m.TableName}
		}

		return out, nil
	})
}

// SchemaIDByName resolves a schema name at the given snapshot.
func (c *Catalog) SchemaIDByName(ctx context.Context, name string, snapshotID int64) (int64, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) (int64, error) {
		var id int64
		err := visible(tx.NewSelect().Model((*sqlSchema)(nil)), snapshotID).
			Column("schema_id").
			Where("schema_name = ?", name).
			Limit(1).Scan(ctx, &id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("%w: %q", ErrNoSuchSchema, name)
			}

			return 0, err
		}

		return id, nil
	})
}

// TableIDByName resolves a table name within a schema at the given snapshot.
func (c *Catalog) TableIDByName(ctx context.Context, schemaID int64, name string, snapshotID int64) (int64, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) (int64, error) {
		var id int64
		err := visible(tx.NewSelect().Model((*sqlTable)(nil)), snapshotID).
			Column("table_id").
			Where("schema_id = ?", schemaID).
			Where("table_name = ?", name).
			Limit(1).Scan(ctx, &id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("%w: %q", ErrNoSuchTable, name)
			}

			return 0, err
		}

		return id, nil
	})
}

// TableColumns returns the top-level columns of a table at the given
// snapshot, ordered by column_order. Nested fields (parent_column set) are
// not surfaced; the parquet reader resolves those from the file schema.
func (c *Catalog) TableColumns(ctx context.Context, tableID, snapshotID int64) ([]TableColumn, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]TableColumn, error) {
		var models []sqlColumn
		err := visible(tx.NewSelect().Model(&models), snapshotID).
			Where("table_id = ?", tableID).
			Where("parent_column IS NULL").
			Order("column_order").Scan(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]TableColumn, len(models))
		for i, m := range models {
			out[i] = TableColumn{
				ID:       m.ColumnID,
				Name:     m.ColumnName,
				Type:     m.ColumnType,
				Order:    m.ColumnOrder,
				Nullable: m.NullsAllowed,
			}
		}

		return out, nil
	})
}

type dataFileJoinRow struct {
	DataFileID           int64          `bun:"data_file_id"`
	Path                 string         `bun:"path"`
	PathIsRelative       bool           `bun:"path_is_relative"`
	RecordCount          int64          `bun:"record_count"`
	DeleteFileID         sql.NullInt64  `bun:"delete_file_id"`
	DeletePath           sql.NullString `bun:"delete_path"`
	DeletePathIsRelative sql.NullBool   `bun:"delete_path_is_relative"`
}

// DataFiles lists the data files of a table at the given snapshot, in
// file_order, each grouped with the delete files targeting it. A data file
// with no deletes has an empty DeleteFiles slice.
func (c *Catalog) DataFiles(ctx context.Context, tableID, snapshotID int64) ([]DataFile, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]DataFile, error) {
		deletes := visible(tx.NewSelect().Model((*sqlDeleteFile)(nil)), snapshotID).
			Column("delete_file_id", "data_file_id", "path", "path_is_relative")

		var rows []dataFileJoinRow
		err := tx.NewSelect().
			TableExpr("ducklake_data_file AS df").
			ColumnExpr("df.data_file_id, df.path, df.path_is_relative, df.record_count").
			ColumnExpr("del.delete_file_id AS delete_file_id").
			ColumnExpr("del.path AS delete_path").
			ColumnExpr("del.path_is_relative AS delete_path_is_relative").
			Join("LEFT JOIN (?) AS del ON del.data_file_id = df.data_file_id", deletes).
			Where("df.table_id = ?", tableID).
			Where("? >= df.begin_snapshot", snapshotID).
			Where("(? < df.end_snapshot OR df.end_snapshot IS NULL)", snapshotID).
			OrderExpr("df.file_order, df.data_file_id, del.delete_file_id").
			Scan(ctx, &rows)
		if err != nil {
			return nil, err
		}

		files := make([]DataFile, 0, len(rows))
		for _, r := range rows {
			if n := len(files); n == 0 || files[n-1].ID != r.DataFileID {
				files = append(files, DataFile{
					ID:             r.DataFileID,
					Path:           r.Path,
					PathIsRelative: r.PathIsRelative,
					RecordCount:    r.RecordCount,
				})
			}
			if r.DeleteFileID.Valid {
				cur := &files[len(files)-1]
				cur.DeleteFiles = append(cur.DeleteFiles, DeleteFile{
					ID:             r.DeleteFileID.Int64,
					DataFileID:     r.DataFileID,
					Path:           r.DeletePath.String,
					PathIsRelative: r.DeletePathIsRelative.Bool,
				})
			}
		}

		return files, nil
	})
}
