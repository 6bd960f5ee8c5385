package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPIError implements smithy.APIError for testing error code mapping.
type mockAPIError struct {
	code    string
	message string
}

func (e *mockAPIError) Error() string                 { return fmt.Sprintf("%s: %s", e.code, e.message) }
func (e *mockAPIError) ErrorCode() string             { return e.code }
func (e *mockAPIError) ErrorMessage() string          { return e.message }
func (e *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

var _ smithy.APIError = (*mockAPIError)(nil)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		Bucket:          "media",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "empty bucket", config: Config{}, wantErr: "bucket name is required"},
		{name: "minimal", config: Config{Bucket: "media"}},
		{name: "explicit creds", config: Config{Bucket: "media", AccessKeyID: "a", SecretAccessKey: "b"}},
		{name: "half creds", config: Config{Bucket: "media", AccessKeyID: "a"}, wantErr: "must be provided together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.IsInvalidArgument(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWrapError_APIError(t *testing.T) {
	err := wrapError("list objects", &mockAPIError{code: "NoSuchBucket", message: "The specified bucket does not exist"})

	assert.True(t, errs.IsStoreUnavailable(err))
	assert.Equal(t, "The specified bucket does not exist", errs.PublicMessage(err))

	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "NoSuchBucket", e.Code)

	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr), "sdk error must stay reachable")
}

func TestWrapError_NoCORS(t *testing.T) {
	err := wrapError("get bucket cors", &mockAPIError{code: "NoSuchCORSConfiguration"})
	assert.True(t, errs.IsNoConfiguration(err))
	assert.Equal(t, "NoSuchCORSConfiguration", errs.PublicMessage(err))
}

func TestWrapError_Transport(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := wrapError("list objects", cause)
	assert.True(t, errs.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, cause)
}

func TestListPage(t *testing.T) {
	var gotQuery string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media", r.URL.Path, "path-style addressing")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>media</Name><Prefix>docs/</Prefix><KeyCount>3</KeyCount><MaxKeys>2</MaxKeys>
  <Delimiter>/</Delimiter><IsTruncated>true</IsTruncated>
  <NextContinuationToken>next-token</NextContinuationToken>
  <Contents><Key>docs/</Key><LastModified>2024-01-02T03:04:05.000Z</LastModified><Size>0</Size></Contents>
  <Contents><Key>docs/a.txt</Key><LastModified>2024-01-02T03:04:05.000Z</LastModified><Size>12</Size></Contents>
  <CommonPrefixes><Prefix>docs/sub/</Prefix></CommonPrefixes>
</ListBucketResult>`)
	})

	out, err := s.ListPage(context.Background(), storage.ListInput{
		Prefix:    "docs/",
		Delimiter: storage.Delimiter,
		Cursor:    "prev-token",
		MaxKeys:   2,
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "list-type=2")
	assert.Contains(t, gotQuery, "continuation-token=prev-token")
	assert.Contains(t, gotQuery, "max-keys=2")

	require.Len(t, out.Objects, 2)
	assert.Equal(t, "docs/a.txt", out.Objects[1].Key)
	assert.EqualValues(t, 12, out.Objects[1].Size)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), out.Objects[1].LastModified.UTC())
	assert.Equal(t, []string{"docs/sub/"}, out.CommonPrefixes)
	assert.Equal(t, "next-token", out.NextCursor)
}

func TestDeleteObjects_ClassifiesKeys(t *testing.T) {
	var body string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Deleted><Key>a.txt</Key></Deleted>
  <Error><Key>b.txt</Key><Code>AccessDenied</Code><Message>Access Denied</Message></Error>
</DeleteResult>`)
	})

	out, err := s.DeleteObjects(context.Background(), []string{"a.txt", "b.txt"})
	require.NoError(t, err)

	assert.True(t, strings.Contains(body, "<Key>a.txt</Key>") && strings.Contains(body, "<Key>b.txt</Key>"))
	assert.Equal(t, []string{"a.txt"}, out.Deleted)
	assert.Equal(t, []storage.DeleteError{{Key: "b.txt", Code: "AccessDenied", Message: "Access Denied"}}, out.Errors)
}

func TestGetCORS_NoConfiguration(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchCORSConfiguration</Code><Message>The CORS configuration does not exist</Message></Error>`)
	})

	_, err := s.GetCORS(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNoConfiguration(err))
}

func TestListPage_AccessDenied(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
	})

	_, err := s.ListPage(context.Background(), storage.ListInput{Delimiter: storage.Delimiter})
	require.Error(t, err)
	assert.True(t, errs.IsStoreUnavailable(err))
	assert.Equal(t, "Access Denied", errs.PublicMessage(err))
}

func TestPresign_IsLocal(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("presigning must not call the backend: %s", r.URL)
	})

	get, err := s.PresignGet(context.Background(), "photos/cat.jpg", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, get, "/media/photos/cat.jpg?")
	assert.Contains(t, get, "X-Amz-Expires=3600")

	put, err := s.PresignPut(context.Background(), "photos/cat.jpg", "image/jpeg", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, put, "X-Amz-Expires=300")
	assert.Contains(t, put, "X-Amz-SignedHeaders=content-type%3Bhost")
	assert.NotContains(t, put, "image%2Fjpeg", "content type is signed, not hoisted into the query")
}

func TestPresignPut_WithoutContentType(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("presigning must not call the backend: %s", r.URL)
	})

	put, err := s.PresignPut(context.Background(), "notes.txt", "", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, put, "X-Amz-SignedHeaders=host")
}

func TestToS3Rules(t *testing.T) {
	rules := toS3Rules([]storage.CORSRule{
		{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}},
		{ID: "upload", AllowedOrigins: []string{"https://a.example"}, AllowedMethods: []string{"PUT"}, MaxAgeSeconds: 600},
	})

	require.Len(t, rules, 2)
	assert.Nil(t, rules[0].ID)
	assert.Nil(t, rules[0].MaxAgeSeconds)
	assert.Equal(t, "upload", *rules[1].ID)
	assert.EqualValues(t, 600, *rules[1].MaxAgeSeconds)
}
