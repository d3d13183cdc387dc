// Package schema reads table and column names from the live database catalog.
//
// Nothing is cached: every Describe call reflects the catalog at that moment,
// so tables created or migrated by other processes show up on the next call.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/migrations"
)

// Table is one user table and its column names in declaration order.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Description is the catalog snapshot rendered into prompts, ordered by table
// name.
type Description []Table

// Introspector describes the database behind one pool. Internal tables and
// the migration bookkeeping table are left out.
type Introspector struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewIntrospector picks catalog queries for dialect.
func NewIntrospector(db *sql.DB, dialect database.Dialect) *Introspector {
	return &Introspector{db: db, dialect: dialect}
}

// Describe lists user tables ordered by name, each with its columns in
// declaration order.
func (i *Introspector) Describe(ctx context.Context) (Description, error) {
	conn, err := i.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	switch i.dialect {
	case database.DialectSQLite:
		return describeSQLite(ctx, conn)
	case database.DialectPostgres, database.DialectDuckDB:
		return describeInformationSchema(ctx, conn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", i.dialect)
	}
}

const sqliteTablesQuery = `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite~_%' ESCAPE '~' AND name <> ?
ORDER BY name`

const sqliteColumnsQuery = `
SELECT name
FROM pragma_table_info(?)
ORDER BY cid`

func describeSQLite(ctx context.Context, conn *sql.Conn) (Description, error) {
	rows, err := conn.QueryContext(ctx, sqliteTablesQuery, migrations.TableName)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	_ = rows.Close()

	description := make(Description, 0, len(names))
	for _, name := range names {
		columns, err := sqliteColumns(ctx, conn, name)
		if err != nil {
			return nil, err
		}
		description = append(description, Table{Name: name, Columns: columns})
	}
	return description, nil
}

func sqliteColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, sqliteColumnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]string, 0)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	return columns, nil
}

const informationSchemaQuery = `
SELECT t.table_name, c.column_name
FROM information_schema.tables t
LEFT JOIN information_schema.columns c
  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
WHERE t.table_schema = current_schema() AND t.table_type = 'BASE TABLE' AND t.table_name <> $1
ORDER BY t.table_name, c.ordinal_position`

func describeInformationSchema(ctx context.Context, conn *sql.Conn) (Description, error) {
	rows, err := conn.QueryContext(ctx, informationSchemaQuery, migrations.TableName)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	description := make(Description, 0)
	for rows.Next() {
		var tableName string
		var columnName sql.NullString
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		last := len(description) - 1
		if last < 0 || description[last].Name != tableName {
			description = append(description, Table{Name: tableName, Columns: []string{}})
			last++
		}
		if columnName.Valid {
			description[last].Columns = append(description[last].Columns, columnName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return description, nil
}
