package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/askdb/askdb/internal/storage"
)

type BucketOpener func(bucket string) (storage.ObjectReader, error)

const defaultMaxObjectBytes = 512 << 20

// Source fetches datasets from local disk or an object store.
type Source struct {
	OpenBucket BucketOpener
	// MaxObjectBytes caps object downloads; 0 means 512 MiB.
	MaxObjectBytes int64
}

func (s Source) Read(ctx context.Context, location storage.Location) ([]Record, error) {
	decode, err := decoderFor(location.Name())
	if err != nil {
		return nil, err
	}

	if !location.IsObject() {
		file, err := os.Open(location.Path)
		if err != nil {
			return nil, fmt.Errorf("dataset not found at %s: %w", location.Path, err)
		}
		defer func() { _ = file.Close() }()
		return decode(file)
	}

	if s.OpenBucket == nil {
		return nil, fmt.Errorf("object store is not configured for %s", location)
	}
	store, err := s.OpenBucket(location.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", location.Bucket, err)
	}
	limit := s.MaxObjectBytes
	if limit <= 0 {
		limit = defaultMaxObjectBytes
	}
	payload, err := storage.ReadObject(ctx, store, location.Key, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", location, err)
	}
	return decode(bytes.NewReader(payload))
}

type readerAtReader interface {
	io.Reader
	io.ReaderAt
}

func decoderFor(name string) (func(readerAtReader) ([]Record, error), error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return func(r readerAtReader) ([]Record, error) { return ReadCSV(r) }, nil
	case ".parquet":
		return func(r readerAtReader) ([]Record, error) { return ReadParquet(r) }, nil
	default:
		return nil, fmt.Errorf("unsupported dataset format %q: want .csv or .parquet", name)
	}
}
