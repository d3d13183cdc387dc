package storage

import "testing"

func TestParseLocationObject(t *testing.T) {
	loc, err := ParseLocation("s3://datasets/fertility/2024.csv")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	if !loc.IsObject() || loc.Bucket != "datasets" || loc.Key != "fertility/2024.csv" {
		t.Fatalf("location = %+v", loc)
	}
	if loc.Name() != "2024.csv" {
		t.Fatalf("Name() = %q", loc.Name())
	}
	if loc.String() != "s3://datasets/fertility/2024.csv" {
		t.Fatalf("String() = %q", loc.String())
	}
}

func TestParseLocationLocalPath(t *testing.T) {
	loc, err := ParseLocation(" data/fertility.parquet ")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	if loc.IsObject() || loc.Path != "data/fertility.parquet" {
		t.Fatalf("location = %+v", loc)
	}
	if loc.Name() != "fertility.parquet" {
		t.Fatalf("Name() = %q", loc.Name())
	}
}

func TestParseLocationRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "s3://", "s3://bucket", "s3://bucket/", "s3://Bad_Bucket/key.csv"} {
		if _, err := ParseLocation(raw); err == nil {
			t.Fatalf("ParseLocation(%q) expected error", raw)
		}
	}
}
