package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/storage/storagetest"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *storagetest.Store
	pages    *services.Paginator
	objects  *services.ObjectService
	cors     *services.CORSService
	storage  *StorageHandler
	settings *SettingsHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	store := storagetest.New("media")

	lister := services.NewLister(store, 1000, log)
	signer, err := services.NewURLSigner(store, services.SignerOptions{Concurrency: 4}, log)
	require.NoError(t, err)
	deleter := services.NewBulkDeleter(store, 1000, log)

	f := &fixture{
		store:   store,
		pages:   services.NewPaginator(lister, signer),
		objects: services.NewObjectService(store, lister, signer, deleter, log),
		cors:    services.NewCORSService(store),
	}
	f.storage = NewStorageHandler(f.pages, f.objects, 50, 1000, log)
	f.settings = NewSettingsHandler(f.cors, log)
	return f
}

func seedKeys(store *storagetest.Store, prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%sfile-%04d.txt", prefix, i)
	}
	store.SeedKeys(keys...)
	return keys
}

func newContext(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func get(target string) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(http.MethodGet, target, nil)
}
