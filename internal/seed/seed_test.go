package seed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/askdb/askdb/internal/migrations"
	"github.com/askdb/askdb/internal/storage"
)

func TestParquetRoundTrip(t *testing.T) {
	records := []Record{
		{Region: "North", TotalNumber: int64Ptr(1200), TotalRate: float64Ptr(61.5)},
		{Region: "South"},
	}
	payload, err := EncodeParquet(records)
	if err != nil {
		t.Fatalf("EncodeParquet() error = %v", err)
	}

	decoded, err := ReadParquet(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("records = %d", len(decoded))
	}
	if decoded[0].Region != "North" || decoded[0].TotalNumber == nil || *decoded[0].TotalNumber != 1200 {
		t.Fatalf("first record = %+v", decoded[0])
	}
	if decoded[1].TotalNumber != nil || decoded[1].TotalRate != nil {
		t.Fatalf("second record = %+v, want nulls", decoded[1])
	}
}

func TestSourceReadsLocalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fertility.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	location, err := storage.ParseLocation(path)
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}

	records, err := Source{}.Read(context.Background(), location)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
}

func TestSourceMissingLocalFile(t *testing.T) {
	location, _ := storage.ParseLocation(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := (Source{}).Read(context.Background(), location); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestSourceRejectsUnknownFormat(t *testing.T) {
	location, _ := storage.ParseLocation("data/fertility.xlsx")
	if _, err := (Source{}).Read(context.Background(), location); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestSourceReadsParquetFromObjectStore(t *testing.T) {
	payload, err := EncodeParquet([]Record{{Region: "East", TotalNumber: int64Ptr(5)}})
	if err != nil {
		t.Fatalf("EncodeParquet() error = %v", err)
	}
	store := &memoryStore{objects: map[string][]byte{"fertility/2024.parquet": payload}}
	var openedBucket string
	source := Source{OpenBucket: func(bucket string) (storage.ObjectReader, error) {
		openedBucket = bucket
		return store, nil
	}}

	location, err := storage.ParseLocation("s3://datasets/fertility/2024.parquet")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	records, err := source.Read(context.Background(), location)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if openedBucket != "datasets" {
		t.Fatalf("bucket = %q", openedBucket)
	}
	if len(records) != 1 || records[0].Region != "East" {
		t.Fatalf("records = %+v", records)
	}
}

func TestSourceRejectsOversizedObject(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{"fertility.csv": []byte(sampleCSV)}}
	source := Source{
		OpenBucket:     func(string) (storage.ObjectReader, error) { return store, nil },
		MaxObjectBytes: 16,
	}
	location, _ := storage.ParseLocation("s3://datasets/fertility.csv")
	if _, err := source.Read(context.Background(), location); !errors.Is(err, storage.ErrObjectTooLarge) {
		t.Fatalf("Read() error = %v, want ErrObjectTooLarge", err)
	}
}

func TestSourceObjectWithoutStore(t *testing.T) {
	location, _ := storage.ParseLocation("s3://datasets/fertility.csv")
	if _, err := (Source{}).Read(context.Background(), location); err == nil {
		t.Fatal("expected error without object store")
	}
}

func TestLoadReplacesContentsSQLite(t *testing.T) {
	db := migratedDB(t, "sqlite3", filepath.Join(t.TempDir(), "fertility.db"))
	assertLoadReplaces(t, db)
}

func TestLoadReplacesContentsDuckDB(t *testing.T) {
	db := migratedDB(t, "duckdb", filepath.Join(t.TempDir(), "fertility.duckdb"))
	assertLoadReplaces(t, db)
}

func TestLoadWithoutTableFails(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := Load(context.Background(), db, []Record{{Region: "North"}}); err == nil {
		t.Fatal("expected error without fertility_stats table")
	}
}

func assertLoadReplaces(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()

	if _, err := Load(ctx, db, []Record{{Region: "Old"}, {Region: "Older"}, {Region: "Oldest"}}); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	records, err := ReadCSV(bytes.NewReader([]byte(sampleCSV)))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	count, err := Load(ctx, db, records)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fertility_stats`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows = %d, want 2", rows)
	}

	var total sql.NullInt64
	var rate sql.NullFloat64
	if err := db.QueryRow(`SELECT total_number, total_rate FROM fertility_stats WHERE region = 'South'`).Scan(&total, &rate); err != nil {
		t.Fatalf("read South: %v", err)
	}
	if !total.Valid || total.Int64 != 900 {
		t.Fatalf("total_number = %+v", total)
	}
	if rate.Valid {
		t.Fatalf("total_rate = %+v, want NULL", rate)
	}
}

func migratedDB(t *testing.T, driver, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open(driver, dsn)
	if err != nil {
		t.Fatalf("sql.Open(%s) error = %v", driver, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	if _, err := migrations.NewRunner().Up(context.Background(), db, 0); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	payload, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	payload, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, errors.New("missing")
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(payload))}, nil
}
