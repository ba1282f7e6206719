package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
)

type Options struct {
	Driver    string
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open returns the store for location: a directory for fs, a key prefix
// below Options.Prefix for s3. The memory driver ignores location.
func Open(ctx context.Context, opts Options, location string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverFS:
		return NewFS(location)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    opts.Bucket,
			Prefix:    path.Join(opts.Prefix, location),
			Region:    opts.Region,
			Endpoint:  opts.Endpoint,
			PathStyle: opts.PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported blob driver %q (expected fs|s3|memory)", opts.Driver)
	}
}
