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

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/docopt/docopt-go"
	ducklake "github.com/ducklake-go/ducklake-go"
	"github.com/ducklake-go/ducklake-go/catalog"
	"github.com/ducklake-go/ducklake-go/config"
	"github.com/pterm/pterm"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const usage = `ducklake.

Usage:
  ducklake list [options] [SCHEMA]
  ducklake describe [options] TABLE_ID
  ducklake read [options] TABLE_ID
  ducklake snapshot [options]
  ducklake -h | --help | --version

Commands:
  list        List schemas, or the tables of a schema.
  describe    Show the column metadata of a table.
  read        Materialize a table and print its rows.
  snapshot    Print the current snapshot id.

Arguments:
  SCHEMA      schema name
  TABLE_ID    table as schema.table

Options:
  -h --help           show this help message and exit
  --catalog TEXT      named catalog from the config file [default: default]
  --config TEXT       path to the configuration file
  --uri TEXT          catalog database URI
  --dialect TEXT      catalog sql dialect (sqlite/postgres/mysql) [default: sqlite]
  --data-path TEXT    base path for relative data file paths
  --columns TEXT      comma separated list of columns to read
  --limit N           maximum number of rows to print [default: 20]
  --snapshot N        read at an explicit snapshot id`

type cliConfig struct {
	List     bool `docopt:"list"`
	Describe bool `docopt:"describe"`
	Read     bool `docopt:"read"`
	Snapshot bool `docopt:"snapshot"`

	Schema  string `docopt:"SCHEMA"`
	TableID string `docopt:"TABLE_ID"`

	Catalog    string `docopt:"--catalog"`
	ConfigPath string `docopt:"--config"`
	URI        string `docopt:"--uri"`
	Dialect    string `docopt:"--dialect"`
	DataPath   string `docopt:"--data-path"`
	Columns    string `docopt:"--columns"`
	Limit      int    `docopt:"--limit"`
	SnapshotID int    `docopt:"--snapshot"`
}

func driverFor(dialect catalog.SupportedDialect) (string, error) {
	switch dialect {
	case catalog.SQLite:
		return sqliteshim.ShimName, nil
	case catalog.Postgres:
		return "pg", nil
	case catalog.MySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func main() {
	args, err := docopt.ParseArgs(usage, nil, ducklake.Version)
	if err != nil {
		log.Fatal(err)
	}

	cfg := cliConfig{}
	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	file := config.LoadConfig(cfg.ConfigPath)
	if fileCfg := config.ParseConfig(file, cfg.Catalog); fileCfg != nil {
		if cfg.URI == "" {
			cfg.URI = fileCfg.URI
		}
		if fileCfg.Dialect != "" {
			cfg.Dialect = fileCfg.Dialect
		}
		if cfg.DataPath == "" {
			cfg.DataPath = fileCfg.DataPath
		}
	}

	dialect := catalog.SupportedDialect(strings.ToLower(cfg.Dialect))
	driver, err := driverFor(dialect)
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(driver, cfg.URI)
	if err != nil {
		log.Fatal(err)
	}

	opts := []ducklake.Option{ducklake.WithMaxWorkers(config.ParseMaxWorkers(file))}
	if cfg.DataPath != "" {
		opts = append(opts, ducklake.WithDataPath(cfg.DataPath))
	}

	client, err := ducklake.NewClient(db, dialect, nil, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()

	switch {
	case cfg.Snapshot:
		id, err := client.CurrentSnapshotID(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(id)
	case cfg.List:
		if err := list(ctx, client, cfg.Schema); err != nil {
			log.Fatal(err)
		}
	case cfg.Describe:
		schemaName, tableName, err := splitTableID(cfg.TableID)
		if err != nil {
			log.Fatal(err)
		}
		if err := describe(ctx, client, schemaName, tableName); err != nil {
			log.Fatal(err)
		}
	case cfg.Read:
		schemaName, tableName, err := splitTableID(cfg.TableID)
		if err != nil {
			log.Fatal(err)
		}
		if err := read(ctx, client, cfg, schemaName, tableName); err != nil {
			log.Fatal(err)
		}
	}
}

func splitTableID(id string) (string, string, error) {
	parts := strings.SplitN(id, ".", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid table identifier %q, expected schema.table", id)
	}

	return parts[0], parts[1], nil
}

func list(ctx context.Context, client *ducklake.Client, schemaName string) error {
	if schemaName == "" {
		schemas, err := client.ListSchemas(ctx)
		if err != nil {
			return err
		}

		items := make([]pterm.BulletListItem, len(schemas))
		for i, s := range schemas {
			items[i] = pterm.BulletListItem{Level: 0, Text: s.Name}
		}

		return pterm.DefaultBulletList.WithItems(items).Render()
	}

	tables, err := client.ListTables(ctx, schemaName)
	if err != nil {
		return err
	}

	items := make([]pterm.BulletListItem, len(tables))
	for i, t := range tables {
		items[i] = pterm.BulletListItem{Level: 0, Text: schemaName + "." + t.Name}
	}

	return pterm.DefaultBulletList.WithItems(items).Render()
}

func describe(ctx context.Context, client *ducklake.Client, schemaName, tableName string) error {
	cols, err := client.TableColumns(ctx, schemaName, tableName)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"column", "type", "nullable"}}
	for _, col := range cols {
		data = append(data, []string{col.Name, col.Type, fmt.Sprintf("%t", col.Nullable)})
	}

	return pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
}

func read(ctx context.Context, client *ducklake.Client, cfg cliConfig, schemaName, tableName string) error {
	var opts []ducklake.ReadOption
	if cfg.Columns != "" {
		opts = append(opts, ducklake.WithColumns(strings.Split(cfg.Columns, ",")...))
	}
	if cfg.SnapshotID != 0 {
		opts = append(opts, ducklake.WithSnapshotID(int64(cfg.SnapshotID)))
	}

	tbl, err := client.ReadTable(ctx, schemaName, tableName, opts...)
	if err != nil {
		return err
	}
	defer tbl.Release()

	header := make([]string, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		header[i] = tbl.Schema().Field(i).Name
	}
	data := pterm.TableData{header}

	limit := int64(cfg.Limit)
	if limit <= 0 || limit > tbl.NumRows() {
		limit = tbl.NumRows()
	}

	rdr := array.NewTableReader(tbl, limit)
	defer rdr.Release()

	var printed int64
	for rdr.Next() && printed < limit {
		rec := rdr.Record()
		for row := 0; int64(row) < rec.NumRows() && printed < limit; row++ {
			data = append(data, formatRow(rec, row))
			printed++
		}
	}

	if err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Render(); err != nil {
		return err
	}

	pterm.Printf("%d of %d rows\n", printed, tbl.NumRows())

	return nil
}

func formatRow(rec arrow.Record, row int) []string {
	out := make([]string, rec.NumCols())
	for col := 0; col < int(rec.NumCols()); col++ {
		arr := rec.Column(col)
		if arr.IsNull(row) {
			out[col] = "NULL"

			continue
		}
		out[col] = arr.ValueStr(row)
	}

	return out
}
