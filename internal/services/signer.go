package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Default signed URL lifetimes.
const (
	DefaultReadURLTTL   = time.Hour
	DefaultUploadURLTTL = 5 * time.Minute
)

// SignerOptions configures a URLSigner. Zero values take the defaults.
type SignerOptions struct {
	ReadTTL     time.Duration
	UploadTTL   time.Duration
	Concurrency int
	// PublicDomain rewrites read URLs onto a custom domain,
	// e.g. "https://files.example.com".
	PublicDomain string
}

// URLSigner issues time-limited URLs for objects.
type URLSigner struct {
	store       storage.Store
	readTTL     time.Duration
	uploadTTL   time.Duration
	concurrency int
	public      *url.URL
	log         *logger.Logger
}

// NewURLSigner validates opts and returns a signer.
func NewURLSigner(store storage.Store, opts SignerOptions, log *logger.Logger) (*URLSigner, error) {
	s := &URLSigner{
		store:       store,
		readTTL:     opts.ReadTTL,
		uploadTTL:   opts.UploadTTL,
		concurrency: opts.Concurrency,
		log:         log,
	}
	if s.readTTL <= 0 {
		s.readTTL = DefaultReadURLTTL
	}
	if s.uploadTTL <= 0 {
		s.uploadTTL = DefaultUploadURLTTL
	}
	if s.concurrency <= 0 {
		s.concurrency = 16
	}

	if opts.PublicDomain != "" {
		public, err := parsePublicDomain(opts.PublicDomain)
		if err != nil {
			return nil, err
		}
		s.public = public
	}
	return s, nil
}

func parsePublicDomain(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "invalid public domain", err)
	}
	if u.Host == "" {
		return nil, errs.InvalidArgument("invalid public domain: missing host")
	}
	return u, nil
}

// SignRead returns a read URL for key, rewritten onto the public domain
// when one is configured.
func (s *URLSigner) SignRead(ctx context.Context, key string) (string, error) {
	signed, err := s.store.PresignGet(ctx, key, s.readTTL)
	if err != nil {
		return "", err
	}
	if s.public == nil {
		return signed, nil
	}
	return rewriteHost(signed, s.public, s.store.Bucket())
}

// SignUpload returns a write URL bound to contentType. Upload URLs always
// target the store endpoint.
func (s *URLSigner) SignUpload(ctx context.Context, key, contentType string) (string, error) {
	return s.store.PresignPut(ctx, key, contentType, s.uploadTTL)
}

// SignFiles fills URL on every entry concurrently, bounded by the configured
// fan-out. The first failure cancels the remaining calls.
func (s *URLSigner) SignFiles(ctx context.Context, files []models.FileEntry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range files {
		i := i
		g.Go(func() error {
			u, err := s.SignRead(gctx, files[i].Key)
			if err != nil {
				s.log.Debug().Err(err).Str("key", files[i].Key).Msg("failed to sign url")
				return err
			}
			files[i].URL = u
			return nil
		})
	}
	return g.Wait()
}

// rewriteHost moves a path-style signed URL onto domain: the leading
// "/<bucket>" segment is dropped, scheme and host are replaced and the query
// is kept as issued.
func rewriteHost(signed string, domain *url.URL, bucket string) (string, error) {
	u, err := url.Parse(signed)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindStoreUnavailable, "store returned an invalid signed url", err)
	}

	path := u.EscapedPath()
	bucketSegment := "/" + url.PathEscape(bucket)
	if path == bucketSegment || strings.HasPrefix(path, bucketSegment+"/") {
		path = path[len(bucketSegment):]
	}

	out := domain.Scheme + "://" + domain.Host + strings.TrimSuffix(domain.EscapedPath(), "/") + path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}
