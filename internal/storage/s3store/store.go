// Package s3store implements storage.Store with the AWS SDK for Go v2.
//
// It targets Cloudflare R2 by default: path-style addressing, region "auto",
// and checksums only where the API requires them, since R2 rejects some of
// the SDK's default trailing checksums.
package s3store

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
)

// DefaultRegion is the region R2 expects in signatures.
const DefaultRegion = "auto"

// Config configures an S3-compatible store bound to one bucket.
type Config struct {
	Bucket string

	// Region defaults to "auto".
	Region string

	// Endpoint is the S3 API URL, e.g. https://<account>.r2.cloudflarestorage.com.
	// Empty uses AWS S3.
	Endpoint string

	// AccessKeyID and SecretAccessKey override the default credential chain
	// when both are set.
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return errs.InvalidArgument("bucket name is required")
	}
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return errs.InvalidArgument("both access key ID and secret access key must be provided together")
	}
	return nil
}

// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ storage.Store = (*Store)(nil)

// New builds a Store. Credentials resolve lazily, so no network call is made.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "failed to load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

func (s *Store) Bucket() string {
	return s.bucket
}

func (s *Store) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListOutput, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(int32(storage.ClampMaxKeys(in.MaxKeys, storage.MaxListKeys))),
	}
	if in.Prefix != "" {
		input.Prefix = aws.String(in.Prefix)
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}
	if in.Cursor != "" {
		input.ContinuationToken = aws.String(in.Cursor)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapError("list objects", err)
	}

	out := &storage.ListOutput{
		Objects:        make([]storage.Object, 0, len(output.Contents)),
		CommonPrefixes: make([]string, 0, len(output.CommonPrefixes)),
	}
	for _, obj := range output.Contents {
		out.Objects = append(out.Objects, storage.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	for _, p := range output.CommonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, aws.ToString(p.Prefix))
	}
	if aws.ToBool(output.IsTruncated) {
		out.NextCursor = aws.ToString(output.NextContinuationToken)
	}
	return out, nil
}

func (s *Store) GetObject(ctx context.Context, key string) (*storage.ObjectReader, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapError("get object", err)
	}
	return &storage.ObjectReader{
		ReadCloser:  output.Body,
		Size:        aws.ToInt64(output.ContentLength),
		ContentType: aws.ToString(output.ContentType),
	}, nil
}

func (s *Store) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return wrapError("put object", err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapError("delete object", err)
	}
	return nil
}

func (s *Store) DeleteObjects(ctx context.Context, keys []string) (*storage.DeleteOutput, error) {
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
	}

	output, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(false)},
	})
	if err != nil {
		return nil, wrapError("delete objects", err)
	}

	out := &storage.DeleteOutput{}
	for _, d := range output.Deleted {
		out.Deleted = append(out.Deleted, aws.ToString(d.Key))
	}
	for _, e := range output.Errors {
		out.Errors = append(out.Errors, storage.DeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
	return out, nil
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapError("presign get", err)
	}
	return req.URL, nil
}

func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl), withSignedContentType(contentType))
	if err != nil {
		return "", wrapError("presign put", err)
	}
	return req.URL, nil
}

// withSignedContentType puts Content-Type back on the request right before
// signing. The presigner strips it from bodiless requests during the build
// step, which would leave the upload unbound to its declared type.
func withSignedContentType(contentType string) func(*s3.PresignOptions) {
	return s3.WithPresignClientFromClientOptions(func(o *s3.Options) {
		if contentType == "" {
			return
		}
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Finalize.Add(signedContentType(contentType), middleware.Before)
		})
	})
}

func signedContentType(contentType string) middleware.FinalizeMiddleware {
	return middleware.FinalizeMiddlewareFunc("SignedContentType",
		func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
			if req, ok := in.Request.(*smithyhttp.Request); ok {
				req.Header.Set("Content-Type", contentType)
			}
			return next.HandleFinalize(ctx, in)
		})
}

func (s *Store) GetCORS(ctx context.Context) ([]storage.CORSRule, error) {
	output, err := s.client.GetBucketCors(ctx, &s3.GetBucketCorsInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return nil, wrapError("get bucket cors", err)
	}

	rules := make([]storage.CORSRule, 0, len(output.CORSRules))
	for _, r := range output.CORSRules {
		rules = append(rules, storage.CORSRule{
			ID:             aws.ToString(r.ID),
			AllowedOrigins: r.AllowedOrigins,
			AllowedMethods: r.AllowedMethods,
			AllowedHeaders: r.AllowedHeaders,
			ExposeHeaders:  r.ExposeHeaders,
			MaxAgeSeconds:  int(aws.ToInt32(r.MaxAgeSeconds)),
		})
	}
	return rules, nil
}

func (s *Store) PutCORS(ctx context.Context, rules []storage.CORSRule) error {
	_, err := s.client.PutBucketCors(ctx, &s3.PutBucketCorsInput{
		Bucket:            aws.String(s.bucket),
		CORSConfiguration: &types.CORSConfiguration{CORSRules: toS3Rules(rules)},
	})
	if err != nil {
		return wrapError("put bucket cors", err)
	}
	return nil
}

func toS3Rules(in []storage.CORSRule) []types.CORSRule {
	rules := make([]types.CORSRule, 0, len(in))
	for _, r := range in {
		rule := types.CORSRule{
			AllowedOrigins: r.AllowedOrigins,
			AllowedMethods: r.AllowedMethods,
			AllowedHeaders: r.AllowedHeaders,
			ExposeHeaders:  r.ExposeHeaders,
		}
		if r.ID != "" {
			rule.ID = aws.String(r.ID)
		}
		if r.MaxAgeSeconds > 0 {
			rule.MaxAgeSeconds = aws.Int32(int32(r.MaxAgeSeconds))
		}
		rules = append(rules, rule)
	}
	return rules
}
