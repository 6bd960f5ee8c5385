package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damacus/r2-manager/internal/config"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/metrics"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Address: ":0", ShutdownTimeout: time.Second},
		Storage: config.StorageConfig{
			Driver:          config.DriverMinio,
			Endpoint:        "https://account.r2.cloudflarestorage.com",
			Region:          "auto",
			Bucket:          "media",
			ListPageSize:    1000,
			DeleteChunkSize: 1000,
		},
		Listing: config.ListingConfig{
			DefaultPageSize: 50,
			MaxPageSize:     1000,
			SignConcurrency: 4,
			ReadURLTTL:      time.Hour,
			UploadURLTTL:    5 * time.Minute,
		},
		Access: config.AccessConfig{BypassLocalhost: false},
		Log:    config.LogConfig{Level: "error", Format: "json"},
	}
}

type testServer struct {
	e   *echo.Echo
	m   *metrics.Metrics
	reg *prometheus.Registry
}

// newTestServer wires s behind the full middleware stack. A nil verifier
// disables the access gate.
func newTestServer(t *testing.T, cfg *config.Config, s storage.Store, verifier *MockVerifier) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	deps := serverDeps{
		Config:   cfg,
		Store:    m.InstrumentStore(s),
		Registry: reg,
		Log:      logger.Nop(),
	}
	if verifier != nil {
		deps.Verifier = verifier
	}

	e, err := newServer(deps)
	require.NoError(t, err)
	return &testServer{e: e, m: m, reg: reg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}
