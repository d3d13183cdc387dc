package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Location is a dataset source: either a local file or an object in a bucket.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

func (l Location) IsObject() bool {
	return l.Bucket != ""
}

// Name is the final path element, used to pick a decoder by extension.
func (l Location) Name() string {
	name := l.Path
	if l.IsObject() {
		name = l.Key
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func (l Location) String() string {
	if l.IsObject() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation accepts "s3://bucket/key" or a filesystem path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("dataset location is required")
	}
	if !strings.HasPrefix(raw, "s3://") {
		return Location{Path: raw}, nil
	}

	rest := strings.TrimPrefix(raw, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || strings.TrimSpace(key) == "" {
		return Location{}, fmt.Errorf("invalid object location %q: expected s3://bucket/key", raw)
	}
	if !bucketNamePattern.MatchString(bucket) {
		return Location{}, fmt.Errorf("invalid bucket name: %q", bucket)
	}
	return Location{Bucket: bucket, Key: key}, nil
}
