package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

func TestRunnerAppliesAndRollsBackOnSQLite(t *testing.T) {
	db := openDB(t, "sqlite3", filepath.Join(t.TempDir(), "fertility.db"))
	assertRunnerRoundTrip(t, db, sqliteTableExists)
}

func TestRunnerAppliesAndRollsBackOnDuckDB(t *testing.T) {
	db := openDB(t, "duckdb", filepath.Join(t.TempDir(), "fertility.duckdb"))
	assertRunnerRoundTrip(t, db, informationSchemaTableExists)
}

func TestRunnerUpIsIdempotent(t *testing.T) {
	db := openDB(t, "sqlite3", filepath.Join(t.TempDir(), "fertility.db"))
	runner := NewRunner()
	ctx := context.Background()

	if _, err := runner.Up(ctx, db, 0); err != nil {
		t.Fatalf("first Up() error = %v", err)
	}
	applied, err := runner.Up(ctx, db, 0)
	if err != nil {
		t.Fatalf("second Up() error = %v", err)
	}
	if applied != 0 {
		t.Fatalf("second Up() applied %d, want 0", applied)
	}
}

func TestRunnerUpHonoursSteps(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000001_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"sql/000001_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"sql/000002_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"sql/000002_b.down.sql": {Data: []byte("DROP TABLE b;")},
	}
	db := openDB(t, "sqlite3", filepath.Join(t.TempDir(), "steps.db"))
	runner := newRunnerFS(fsys)
	ctx := context.Background()

	applied, err := runner.Up(ctx, db, 1)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if applied != 1 {
		t.Fatalf("Up() applied %d, want 1", applied)
	}
	versions, err := runner.Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(versions) != 1 || versions[0] != 1 {
		t.Fatalf("versions = %#v", versions)
	}
	if !sqliteTableExists(t, db, "a") || sqliteTableExists(t, db, "b") {
		t.Fatal("expected only table a to exist")
	}
}

func TestRunnerStatus(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000001_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"sql/000001_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"sql/000002_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"sql/000002_b.down.sql": {Data: []byte("DROP TABLE b;")},
	}
	db := openDB(t, "sqlite3", filepath.Join(t.TempDir(), "status.db"))
	runner := newRunnerFS(fsys)
	ctx := context.Background()

	if _, err := runner.Up(ctx, db, 1); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	statuses, err := runner.Status(ctx, db)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	want := []Status{{Version: 1, Name: "a", Applied: true}, {Version: 2, Name: "b", Applied: false}}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %#v", statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses[%d] = %#v, want %#v", i, statuses[i], want[i])
		}
	}
}

func TestRunnerFailedMigrationIsNotMarked(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000001_bad.up.sql":   {Data: []byte("CREATE TABLE (;")},
		"sql/000001_bad.down.sql": {Data: []byte("SELECT 1;")},
	}
	db := openDB(t, "sqlite3", filepath.Join(t.TempDir(), "bad.db"))
	runner := newRunnerFS(fsys)

	if _, err := runner.Up(context.Background(), db, 0); err == nil {
		t.Fatal("expected error for invalid migration")
	}
	versions, err := runner.Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("versions = %#v, want none", versions)
	}
}

func assertRunnerRoundTrip(t *testing.T, db *sql.DB, exists func(*testing.T, *sql.DB, string) bool) {
	t.Helper()
	runner := NewRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	applied, err := runner.Up(ctx, db, 0)
	if err != nil {
		t.Fatalf("runner.Up() error = %v", err)
	}
	if applied < 1 {
		t.Fatalf("runner.Up() applied %d migrations, want at least 1", applied)
	}
	if !exists(t, db, "fertility_stats") {
		t.Fatal("fertility_stats should exist after Up")
	}

	rolledBack, err := runner.Down(ctx, db, 1)
	if err != nil {
		t.Fatalf("runner.Down() error = %v", err)
	}
	if rolledBack != 1 {
		t.Fatalf("runner.Down() rolled back %d migrations, want 1", rolledBack)
	}
	if exists(t, db, "fertility_stats") {
		t.Fatal("fertility_stats should not exist after Down")
	}
}

func openDB(t *testing.T, driver, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open(driver, dsn)
	if err != nil {
		t.Fatalf("sql.Open(%s) error = %v", driver, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	return db
}

func sqliteTableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
		t.Fatalf("query table %q existence failed: %v", table, err)
	}
	return count > 0
}

func informationSchemaTableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1`, table).Scan(&count); err != nil {
		t.Fatalf("query table %q existence failed: %v", table, err)
	}
	return count > 0
}
