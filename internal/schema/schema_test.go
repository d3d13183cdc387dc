package schema

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/migrations"
)

func TestDescribeSQLiteListsTablesAndColumnsInOrder(t *testing.T) {
	db := openSQLite(t,
		`CREATE TABLE region_stats (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, value INTEGER)`,
		`CREATE TABLE fertility_stats (id INTEGER PRIMARY KEY, region TEXT, total_rate REAL)`,
		`INSERT INTO region_stats (name, value) VALUES ('A', 1)`,
	)

	got, err := NewIntrospector(db, database.DialectSQLite).Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := Description{
		{Name: "fertility_stats", Columns: []string{"id", "region", "total_rate"}},
		{Name: "region_stats", Columns: []string{"id", "name", "value"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Describe() = %#v, want %#v", got, want)
	}
}

func TestDescribeSQLiteReflectsLiveCatalog(t *testing.T) {
	db := openSQLite(t, `CREATE TABLE a (x INTEGER)`)
	introspector := NewIntrospector(db, database.DialectSQLite)

	first, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("tables = %d", len(first))
	}

	if _, err := db.Exec(`CREATE TABLE b (y TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	second, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(second) != 2 || second[1].Name != "b" {
		t.Fatalf("Describe() after migration = %#v", second)
	}
}

func TestDescribeDuckDBUsesInformationSchema(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		`CREATE TABLE region_stats (id INTEGER, name VARCHAR)`,
		`CREATE VIEW region_names AS SELECT name FROM region_stats`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	got, err := NewIntrospector(db, database.DialectDuckDB).Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := Description{{Name: "region_stats", Columns: []string{"id", "name"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Describe() = %#v, want %#v", got, want)
	}
}

func TestDescribeSkipsMigrationBookkeeping(t *testing.T) {
	for _, tc := range []struct {
		driver  string
		dsn     string
		dialect database.Dialect
	}{
		{"sqlite3", filepath.Join(t.TempDir(), "migrated.db"), database.DialectSQLite},
		{"duckdb", "", database.DialectDuckDB},
	} {
		t.Run(tc.driver, func(t *testing.T) {
			db, err := sql.Open(tc.driver, tc.dsn)
			if err != nil {
				t.Fatalf("open %s: %v", tc.driver, err)
			}
			t.Cleanup(func() { _ = db.Close() })
			db.SetMaxOpenConns(1)
			if _, err := migrations.NewRunner().Up(context.Background(), db, 0); err != nil {
				t.Fatalf("migrate: %v", err)
			}

			got, err := NewIntrospector(db, tc.dialect).Describe(context.Background())
			if err != nil {
				t.Fatalf("Describe() error = %v", err)
			}
			if len(got) != 1 || got[0].Name != "fertility_stats" {
				t.Fatalf("Describe() = %#v, want only fertility_stats", got)
			}
		})
	}
}

func TestDescribeInformationSchemaGroupsRows(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(informationSchemaQuery)).
		WithArgs(migrations.TableName).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("orders", "id").
			AddRow("orders", "total").
			AddRow("empty_table", nil).
			AddRow("regions", "name"))

	got, err := NewIntrospector(db, database.DialectPostgres).Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := Description{
		{Name: "orders", Columns: []string{"id", "total"}},
		{Name: "empty_table", Columns: []string{}},
		{Name: "regions", Columns: []string{"name"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Describe() = %#v, want %#v", got, want)
	}
	assertSQLMock(t, mock)
}

func TestDescribeReturnsCatalogError(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(informationSchemaQuery)).
		WillReturnError(errors.New("permission denied for schema information_schema"))

	_, err := NewIntrospector(db, database.DialectPostgres).Describe(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	assertSQLMock(t, mock)
}

func TestDescribeFailsWhenDatabaseUnreachable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "missing", "nope.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := NewIntrospector(db, database.DialectSQLite).Describe(context.Background()); err == nil {
		t.Fatal("expected error for unreachable database")
	}
}

func openSQLite(t *testing.T, statements ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return db
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
