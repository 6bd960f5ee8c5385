package metrics

import (
	"context"
	"io"
	"time"

	"github.com/damacus/r2-manager/internal/storage"
)

// InstrumentStore wraps s so that every call is counted and timed.
func (m *Metrics) InstrumentStore(s storage.Store) storage.Store {
	return &instrumentedStore{next: s, m: m}
}

var _ storage.Store = (*instrumentedStore)(nil)

type instrumentedStore struct {
	next storage.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.m.StoreCalls.WithLabelValues(op, outcome).Inc()
	s.m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Bucket() string {
	return s.next.Bucket()
}

func (s *instrumentedStore) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListOutput, error) {
	start := time.Now()
	out, err := s.next.ListPage(ctx, in)
	s.observe("list", start, err)
	return out, err
}

func (s *instrumentedStore) GetObject(ctx context.Context, key string) (*storage.ObjectReader, error) {
	start := time.Now()
	out, err := s.next.GetObject(ctx, key)
	s.observe("get", start, err)
	return out, err
}

func (s *instrumentedStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := s.next.PutObject(ctx, key, body, size, contentType)
	s.observe("put", start, err)
	return err
}

func (s *instrumentedStore) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.DeleteObject(ctx, key)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) DeleteObjects(ctx context.Context, keys []string) (*storage.DeleteOutput, error) {
	start := time.Now()
	out, err := s.next.DeleteObjects(ctx, keys)
	s.observe("delete_multi", start, err)

	if err != nil {
		s.m.FailedDeletions.Inc()
		return nil, err
	}
	s.m.DeletedKeys.Add(float64(len(out.Deleted)))
	s.m.RejectedKeys.Add(float64(len(out.Errors)))
	return out, nil
}

func (s *instrumentedStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	start := time.Now()
	out, err := s.next.PresignGet(ctx, key, ttl)
	s.observe("presign_get", start, err)
	return out, err
}

func (s *instrumentedStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	start := time.Now()
	out, err := s.next.PresignPut(ctx, key, contentType, ttl)
	s.observe("presign_put", start, err)
	return out, err
}

func (s *instrumentedStore) GetCORS(ctx context.Context) ([]storage.CORSRule, error) {
	start := time.Now()
	out, err := s.next.GetCORS(ctx)
	s.observe("get_cors", start, err)
	return out, err
}

func (s *instrumentedStore) PutCORS(ctx context.Context, rules []storage.CORSRule) error {
	start := time.Now()
	err := s.next.PutCORS(ctx, rules)
	s.observe("put_cors", start, err)
	return err
}
