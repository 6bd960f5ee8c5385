// Package storage defines the object store capability the listing services
// depend on.
//
// Drivers (miniostore, s3store) implement Store against a single bucket.
// Callers depend only on this package, never on a specific SDK.
package storage

import (
	"context"
	"io"
	"time"
)

// Store is the single interface all object store drivers implement. It is
// bound to one bucket and holds no per-request state.
type Store interface {
	// Bucket returns the bucket this store operates on.
	Bucket() string

	// ListPage performs exactly one list call against the backend. The result
	// holds at most in.MaxKeys entries and a NextCursor when more remain.
	ListPage(ctx context.Context, in ListInput) (*ListOutput, error)

	// GetObject opens a streaming handle to the object. The caller MUST close it.
	GetObject(ctx context.Context, key string) (*ObjectReader, error)

	// PutObject writes an object of the given size.
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// DeleteObject removes one object. Backend errors are returned as-is;
	// no NotFound-is-success normalization happens here.
	DeleteObject(ctx context.Context, key string) error

	// DeleteObjects issues one multi-object delete call. len(keys) must not
	// exceed MaxDeleteKeys. A returned error means the call itself failed and
	// no per-key outcome is known.
	DeleteObjects(ctx context.Context, keys []string) (*DeleteOutput, error)

	// PresignGet returns a read URL valid for ttl.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignPut returns a write URL valid for ttl. The content type is part
	// of the signature, so the uploader must send the same Content-Type.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// GetCORS returns the bucket CORS rules. When the bucket has no CORS
	// configuration the error has kind errs.ErrKindNoConfiguration.
	GetCORS(ctx context.Context) ([]CORSRule, error)

	// PutCORS replaces the bucket CORS rules.
	PutCORS(ctx context.Context, rules []CORSRule) error
}

const (
	// Delimiter partitions the flat key space into folder levels.
	Delimiter = "/"

	// MaxListKeys is the largest page the S3 list API returns.
	MaxListKeys = 1000

	// MaxDeleteKeys is the largest batch the S3 multi-delete API accepts.
	MaxDeleteKeys = 1000
)
