package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockStore implements storage.Store for testing
type MockStore struct {
	mock.Mock
}

var _ storage.Store = (*MockStore)(nil)

func (m *MockStore) Bucket() string {
	return m.Called().String(0)
}

func (m *MockStore) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*storage.ListOutput)
	return out, args.Error(1)
}

func (m *MockStore) GetObject(ctx context.Context, key string) (*storage.ObjectReader, error) {
	args := m.Called(ctx, key)
	obj, _ := args.Get(0).(*storage.ObjectReader)
	return obj, args.Error(1)
}

func (m *MockStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) DeleteObjects(ctx context.Context, keys []string) (*storage.DeleteOutput, error) {
	args := m.Called(ctx, keys)
	out, _ := args.Get(0).(*storage.DeleteOutput)
	return out, args.Error(1)
}

func (m *MockStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, contentType, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStore) GetCORS(ctx context.Context) ([]storage.CORSRule, error) {
	args := m.Called(ctx)
	rules, _ := args.Get(0).([]storage.CORSRule)
	return rules, args.Error(1)
}

func (m *MockStore) PutCORS(ctx context.Context, rules []storage.CORSRule) error {
	args := m.Called(ctx, rules)
	return args.Error(0)
}

// MockVerifier accepts exactly one token.
type MockVerifier struct {
	Token string
	Email string
}

func (v *MockVerifier) Verify(_ context.Context, token string) (*services.AccessIdentity, error) {
	if token != v.Token {
		return nil, errors.New("token rejected")
	}
	return &services.AccessIdentity{Email: v.Email}, nil
}
