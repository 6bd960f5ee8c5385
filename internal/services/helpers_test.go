package services

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T, store *storagetest.Store, opts SignerOptions) *URLSigner {
	t.Helper()
	s, err := NewURLSigner(store, opts, logger.Nop())
	require.NoError(t, err)
	return s
}

func seedFiles(store *storagetest.Store, prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%sfile-%04d.txt", prefix, i)
	}
	store.SeedKeys(keys...)
	return keys
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
