// Package storagetest provides an in-memory storage.Store for tests.
//
// The fake applies real prefix, delimiter and continuation-token semantics,
// records every call, and lets tests inject failures per operation.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
)

// Call records one invocation of a Store method.
type Call struct {
	Op    string
	Key   string
	Keys  []string
	Input storage.ListInput
}

type object struct {
	meta        storage.Object
	data        []byte
	contentType string
}

// Store is a concurrency-safe in-memory storage.Store.
type Store struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]*object
	cors    []storage.CORSRule
	calls   []Call
	deletes int

	// PageLimit caps every list page below the requested MaxKeys when > 0.
	PageLimit int

	// ListErr fails every ListPage call.
	ListErr error
	// DeleteCallErrs fails the n-th (0-based) DeleteObjects call as a whole.
	DeleteCallErrs map[int]error
	// RejectKeys makes DeleteObjects report a per-key error for these keys.
	RejectKeys map[string]storage.DeleteError
	// DropKeys makes DeleteObjects omit these keys from its report.
	DropKeys map[string]bool
	// PresignErrs fails presigning for specific keys.
	PresignErrs map[string]error
	// CORSErr fails GetCORS and PutCORS.
	CORSErr error
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store for bucket.
func New(bucket string) *Store {
	return &Store{
		bucket:  bucket,
		objects: make(map[string]*object),
	}
}

// Seed adds objects with the given sizes and a fixed modification time.
func (s *Store) Seed(sizes map[string]int64) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, size := range sizes {
		s.objects[key] = &object{meta: storage.Object{
			Key:          key,
			Size:         size,
			LastModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}}
	}
	return s
}

// SeedKeys adds zero-length objects.
func (s *Store) SeedKeys(keys ...string) *Store {
	sizes := make(map[string]int64, len(keys))
	for _, k := range keys {
		sizes[k] = 0
	}
	return s.Seed(sizes)
}

// SetCORS replaces the stored CORS rules; nil means "no configuration".
func (s *Store) SetCORS(rules []storage.CORSRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cors = rules
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Calls returns a copy of the recorded calls, optionally filtered by op.
func (s *Store) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// PresignedKeys returns every key passed to PresignGet, in call order.
func (s *Store) PresignedKeys() []string {
	var keys []string
	for _, c := range s.Calls("PresignGet") {
		keys = append(keys, c.Key)
	}
	return keys
}

// DeleteBatches returns the key batches passed to DeleteObjects.
func (s *Store) DeleteBatches() [][]string {
	var batches [][]string
	for _, c := range s.Calls("DeleteObjects") {
		batches = append(batches, c.Keys)
	}
	return batches
}

func (s *Store) record(c Call) {
	s.calls = append(s.calls, c)
}

func (s *Store) Bucket() string {
	return s.bucket
}

// ListPage returns entries in lexical order. Each object or common prefix
// counts once toward MaxKeys; the cursor is the last entry returned.
func (s *Store) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "ListPage", Input: in})

	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindStoreUnavailable, "list objects", err)
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	maxKeys := storage.ClampMaxKeys(in.MaxKeys, storage.MaxListKeys)
	if s.PageLimit > 0 && s.PageLimit < maxKeys {
		maxKeys = s.PageLimit
	}

	type entry struct {
		name     string
		isPrefix bool
	}
	seen := make(map[string]bool)
	var entries []entry
	for key := range s.objects {
		if !strings.HasPrefix(key, in.Prefix) {
			continue
		}
		if in.Delimiter != "" {
			rest := key[len(in.Prefix):]
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				cp := in.Prefix + rest[:i+len(in.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					entries = append(entries, entry{name: cp, isPrefix: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: key})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	out := &storage.ListOutput{}
	for _, e := range entries {
		if in.Cursor != "" && e.name <= in.Cursor {
			continue
		}
		if len(out.Objects)+len(out.CommonPrefixes) == maxKeys {
			out.NextCursor = lastEntry(out)
			break
		}
		if e.isPrefix {
			out.CommonPrefixes = append(out.CommonPrefixes, e.name)
		} else {
			out.Objects = append(out.Objects, s.objects[e.name].meta)
		}
	}
	return out, nil
}

func lastEntry(out *storage.ListOutput) string {
	last := ""
	if n := len(out.Objects); n > 0 {
		last = out.Objects[n-1].Key
	}
	if n := len(out.CommonPrefixes); n > 0 && out.CommonPrefixes[n-1] > last {
		last = out.CommonPrefixes[n-1]
	}
	return last
}

func (s *Store) GetObject(_ context.Context, key string) (*storage.ObjectReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "GetObject", Key: key})

	obj, ok := s.objects[key]
	if !ok {
		return nil, errs.New(errs.ErrKindStoreUnavailable, "The specified key does not exist.").WithCode("NoSuchKey")
	}
	data := obj.data
	if data == nil {
		data = make([]byte, obj.meta.Size)
	}
	return &storage.ObjectReader{
		ReadCloser:  io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: obj.contentType,
	}, nil
}

func (s *Store) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return errs.Wrap(errs.ErrKindStoreUnavailable, "put object", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "PutObject", Key: key})

	s.objects[key] = &object{
		meta: storage.Object{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: time.Now().UTC(),
		},
		data:        data,
		contentType: contentType,
	}
	return nil
}

func (s *Store) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "DeleteObject", Key: key})

	if rej, ok := s.RejectKeys[key]; ok {
		return errs.New(errs.ErrKindStoreUnavailable, rej.Message).WithCode(rej.Code)
	}
	delete(s.objects, key)
	return nil
}

// DeleteObjects reports a key as deleted whether or not it existed, as S3 does.
func (s *Store) DeleteObjects(_ context.Context, keys []string) (*storage.DeleteOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := append([]string(nil), keys...)
	s.record(Call{Op: "DeleteObjects", Keys: batch})
	n := s.deletes
	s.deletes++

	if len(keys) > storage.MaxDeleteKeys {
		return nil, errs.New(errs.ErrKindStoreUnavailable, "The XML you provided was not well-formed").WithCode("MalformedXML")
	}
	if err, ok := s.DeleteCallErrs[n]; ok {
		return nil, err
	}

	out := &storage.DeleteOutput{}
	for _, key := range keys {
		if s.DropKeys[key] {
			continue
		}
		if rej, ok := s.RejectKeys[key]; ok {
			rej.Key = key
			out.Errors = append(out.Errors, rej)
			continue
		}
		delete(s.objects, key)
		out.Deleted = append(out.Deleted, key)
	}
	return out, nil
}

func (s *Store) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return s.presign("PresignGet", key, "", ttl)
}

func (s *Store) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return s.presign("PresignPut", key, contentType, ttl)
}

func (s *Store) presign(op, key, contentType string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: op, Key: key})

	if err, ok := s.PresignErrs[key]; ok {
		return "", err
	}

	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int(ttl.Seconds())))
	if contentType != "" {
		q.Set("X-Amz-SignedHeaders", "content-type;host")
	}
	q.Set("X-Amz-Signature", "fake")
	u := url.URL{
		Scheme:   "https",
		Host:     "store.test",
		Path:     "/" + s.bucket + "/" + key,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (s *Store) GetCORS(_ context.Context) ([]storage.CORSRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "GetCORS"})

	if s.CORSErr != nil {
		return nil, s.CORSErr
	}
	if s.cors == nil {
		return nil, errs.New(errs.ErrKindNoConfiguration, "The CORS configuration does not exist").WithCode("NoSuchCORSConfiguration")
	}
	return append([]storage.CORSRule(nil), s.cors...), nil
}

func (s *Store) PutCORS(_ context.Context, rules []storage.CORSRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Call{Op: "PutCORS"})

	if s.CORSErr != nil {
		return s.CORSErr
	}
	s.cors = append([]storage.CORSRule{}, rules...)
	return nil
}
