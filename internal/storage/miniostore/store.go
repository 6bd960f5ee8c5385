// Package miniostore implements storage.Store with minio-go.
//
// The client is configured for path-style bucket lookup, which Cloudflare R2
// requires, and for region "auto" unless another region is configured.
package miniostore

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/cors"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings for one bucket.
type Config struct {
	// Endpoint is either a URL ("https://<account>.r2.cloudflarestorage.com")
	// or a bare host:port.
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	client *minio.Client
	core   *minio.Core
	bucket string
}

var _ storage.Store = (*Store)(nil)

// New builds a Store. No network call is made.
func New(cfg Config) (*Store, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "invalid storage endpoint", err)
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, mapError(err, "failed to create minio client")
	}

	return &Store{
		client: client,
		core:   &minio.Core{Client: client},
		bucket: cfg.Bucket,
	}, nil
}

// parseEndpoint accepts a URL or a bare host. Bare hosts decide TLS the way
// local development setups expect.
func parseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, shouldUseSSL(endpoint), nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	return u.Host, u.Scheme == "https", nil
}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, ...) but not domains like minio.example.com
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

func (s *Store) Bucket() string {
	return s.bucket
}

// ListPage issues one ListObjectsV2 request. minio's Core API does not take a
// context, so an in-flight page always runs to completion.
func (s *Store) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapError(err, "list objects")
	}

	maxKeys := storage.ClampMaxKeys(in.MaxKeys, storage.MaxListKeys)
	res, err := s.core.ListObjectsV2(s.bucket, in.Prefix, "", in.Cursor, in.Delimiter, maxKeys)
	if err != nil {
		return nil, mapError(err, "list objects")
	}
	return toListOutput(res), nil
}

func toListOutput(res minio.ListBucketV2Result) *storage.ListOutput {
	out := &storage.ListOutput{
		Objects:        make([]storage.Object, 0, len(res.Contents)),
		CommonPrefixes: make([]string, 0, len(res.CommonPrefixes)),
	}
	for _, obj := range res.Contents {
		out.Objects = append(out.Objects, storage.Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	for _, p := range res.CommonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, p.Prefix)
	}
	if res.IsTruncated {
		out.NextCursor = res.NextContinuationToken
	}
	return out
}

func (s *Store) GetObject(ctx context.Context, key string) (*storage.ObjectReader, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "get object")
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapError(err, "stat object")
	}
	return &storage.ObjectReader{
		ReadCloser:  obj,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

func (s *Store) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapError(err, "put object")
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapError(err, "delete object")
	}
	return nil
}

// DeleteObjects sends keys as a single multi-delete request. minio batches at
// 1000 keys, so callers must chunk before calling.
func (s *Store) DeleteObjects(ctx context.Context, keys []string) (*storage.DeleteOutput, error) {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	results := s.client.RemoveObjectsWithResult(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{})
	return collectRemoveResults(results)
}

// collectRemoveResults splits minio's per-object results into deletions and
// per-key rejections. minio reports a failed request either as a result
// without an object name or by attaching a non-S3 error to every key; both
// mean the call itself failed.
func collectRemoveResults(results <-chan minio.RemoveObjectResult) (*storage.DeleteOutput, error) {
	out := &storage.DeleteOutput{}
	var callErr error

	for res := range results {
		if res.Err == nil {
			out.Deleted = append(out.Deleted, res.ObjectName)
			continue
		}
		resp := minio.ToErrorResponse(res.Err)
		if res.ObjectName == "" || resp.Code == "" {
			if callErr == nil {
				callErr = res.Err
			}
			continue
		}
		out.Errors = append(out.Errors, storage.DeleteError{
			Key:     res.ObjectName,
			Code:    resp.Code,
			Message: resp.Message,
		})
	}

	if callErr != nil {
		return nil, mapError(callErr, "delete objects")
	}
	return out, nil
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", mapError(err, "presign get")
	}
	return u.String(), nil
}

func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	var (
		u   *url.URL
		err error
	)
	if contentType == "" {
		u, err = s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	} else {
		headers := http.Header{}
		headers.Set("Content-Type", contentType)
		u, err = s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, ttl, nil, headers)
	}
	if err != nil {
		return "", mapError(err, "presign put")
	}
	return u.String(), nil
}

func (s *Store) GetCORS(ctx context.Context) ([]storage.CORSRule, error) {
	cfg, err := s.client.GetBucketCors(ctx, s.bucket)
	if err != nil {
		return nil, mapError(err, "get bucket cors")
	}
	if cfg == nil {
		return nil, errs.New(errs.ErrKindNoConfiguration, "bucket has no CORS configuration").WithCode(codeNoSuchCORS)
	}
	return fromMinioRules(cfg.CORSRules), nil
}

func (s *Store) PutCORS(ctx context.Context, rules []storage.CORSRule) error {
	if err := s.client.SetBucketCors(ctx, s.bucket, &cors.Config{CORSRules: toMinioRules(rules)}); err != nil {
		return mapError(err, "put bucket cors")
	}
	return nil
}

func fromMinioRules(in []cors.Rule) []storage.CORSRule {
	rules := make([]storage.CORSRule, 0, len(in))
	for _, r := range in {
		rules = append(rules, storage.CORSRule{
			ID:             r.ID,
			AllowedOrigins: r.AllowedOrigin,
			AllowedMethods: r.AllowedMethod,
			AllowedHeaders: r.AllowedHeader,
			ExposeHeaders:  r.ExposeHeader,
			MaxAgeSeconds:  r.MaxAgeSeconds,
		})
	}
	return rules
}

func toMinioRules(in []storage.CORSRule) []cors.Rule {
	rules := make([]cors.Rule, 0, len(in))
	for _, r := range in {
		rules = append(rules, cors.Rule{
			ID:            r.ID,
			AllowedOrigin: r.AllowedOrigins,
			AllowedMethod: r.AllowedMethods,
			AllowedHeader: r.AllowedHeaders,
			ExposeHeader:  r.ExposeHeaders,
			MaxAgeSeconds: r.MaxAgeSeconds,
		})
	}
	return rules
}
