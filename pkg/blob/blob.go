// Package blob stores the migration documents on the local filesystem, in an
// S3-compatible bucket or in memory.
package blob

import (
	"context"
	"errors"
)

const (
	DriverFS     = "fs"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

var ErrNotFound = errors.New("blob not found")

// Store is a flat key/value object store. Put overwrites.
type Store interface {
	Driver() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
