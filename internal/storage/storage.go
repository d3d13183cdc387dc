// Package storage describes where seed datasets come from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrAccessDenied   = errors.New("object access denied")
	ErrObjectTooLarge = errors.New("object exceeds size limit")
)

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectReader is the read side of an object store. Datasets are only ever
// fetched, never written back.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

// ReadObject fetches a whole object after checking its size against limit.
// A limit <= 0 disables the check.
func ReadObject(ctx context.Context, store ObjectReader, key string, limit int64) ([]byte, error) {
	info, err := store.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	if limit > 0 && info.Size > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrObjectTooLarge, key, info.Size, limit)
	}

	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	var reader io.Reader = body
	if limit > 0 {
		reader = io.LimitReader(body, limit+1)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	// The object may have grown between Stat and Get.
	if limit > 0 && int64(len(payload)) > limit {
		return nil, fmt.Errorf("%w: %s grew past %d bytes", ErrObjectTooLarge, key, limit)
	}
	return payload, nil
}
