package migrations

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsSortsAndPairsUpDown(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000002_two.up.sql":   {Data: []byte("SELECT 2;")},
		"sql/000002_two.down.sql": {Data: []byte("SELECT -2;")},
		"sql/000001_one.up.sql":   {Data: []byte("SELECT 1;")},
		"sql/000001_one.down.sql": {Data: []byte("SELECT -1;")},
	}

	items, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d", len(items))
	}
	if items[0].Version != 1 || items[1].Version != 2 {
		t.Fatalf("unexpected migration order: %+v", items)
	}
	if items[0].Name != "one" || items[1].Name != "two" {
		t.Fatalf("unexpected migration names: %+v", items)
	}
}

func TestLoadMigrationsRejectsConflictingNames(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000001_one.up.sql":   {Data: []byte("SELECT 1;")},
		"sql/000001_uno.down.sql": {Data: []byte("SELECT -1;")},
	}
	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("expected error for mismatched up/down names")
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (id INTEGER);\n\n  CREATE INDEX ix ON a (id);\n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (id INTEGER)" || got[1] != "CREATE INDEX ix ON a (id)" {
		t.Fatalf("splitStatements() = %#v", got)
	}
	if len(splitStatements(" ; \n")) != 0 {
		t.Fatal("expected no statements from blank script")
	}
}

func TestLoadMigrationsErrorsWhenDownMissing(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/000001_one.up.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := loadMigrations(fsys)
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
	if !strings.Contains(err.Error(), "missing down SQL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbeddedMigrationCreatesFertilityStats(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_fertility_stats.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	requiredSnippets := []string{
		"CREATE TABLE fertility_stats",
		"region VARCHAR",
		"total_number BIGINT",
		"total_rate_black DOUBLE PRECISION",
		"CREATE INDEX ix_fertility_stats_region",
	}
	for _, snippet := range requiredSnippets {
		if !strings.Contains(string(body), snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}
