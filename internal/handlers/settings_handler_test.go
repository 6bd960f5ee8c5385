package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetCORS_NoConfiguration(t *testing.T) {
	f := newFixture(t)

	c, rec := get("/settings")
	require.NoError(t, f.settings.GetCORS(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rules":[]}`, rec.Body.String())
}

func TestSettingsGetCORS_ReturnsRules(t *testing.T) {
	f := newFixture(t)
	f.store.SetCORS([]storage.CORSRule{{
		AllowedOrigins: []string{"https://files.example.com"},
		AllowedMethods: []string{"GET", "PUT"},
		MaxAgeSeconds:  3600,
	}})

	c, rec := get("/settings")
	require.NoError(t, f.settings.GetCORS(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rules":[{"AllowedOrigins":["https://files.example.com"],"AllowedMethods":["GET","PUT"],"MaxAgeSeconds":3600}]}`, rec.Body.String())
}

func TestSettingsGetCORS_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.CORSErr = errs.New(errs.ErrKindStoreUnavailable, "Access Denied").WithCode("AccessDenied")

	c, rec := get("/settings")
	require.NoError(t, f.settings.GetCORS(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Access Denied"}`, rec.Body.String())
}

func TestSettingsUpdateCORS(t *testing.T) {
	f := newFixture(t)

	c, rec := newContext(http.MethodPost, "/settings", jsonBody(`{"rules":[{"AllowedOrigins":["*"],"AllowedMethods":["get"," put "]}]}`))
	require.NoError(t, f.settings.UpdateCORS(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rules, err := f.store.GetCORS(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"GET", "PUT"}, rules[0].AllowedMethods)
}

func TestSettingsUpdateCORS_MissingRules(t *testing.T) {
	f := newFixture(t)

	c, rec := newContext(http.MethodPost, "/settings", jsonBody(`{}`))
	require.NoError(t, f.settings.UpdateCORS(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No rules provided"}`, rec.Body.String())
	assert.Empty(t, f.store.Calls("PutCORS"))
}

func TestSettingsUpdateCORS_MaxAgeOverflow(t *testing.T) {
	f := newFixture(t)

	body := `{"rules":[{"AllowedOrigins":["*"],"AllowedMethods":["GET"],"MaxAgeSeconds":2147483648}]}`
	c, rec := newContext(http.MethodPost, "/settings", jsonBody(body))
	require.NoError(t, f.settings.UpdateCORS(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MaxAgeSeconds")
	assert.Empty(t, f.store.Calls("PutCORS"))
}

func TestSettingsUpdateCORS_InvalidBody(t *testing.T) {
	f := newFixture(t)

	c, rec := newContext(http.MethodPost, "/settings", jsonBody(`[`))
	require.NoError(t, f.settings.UpdateCORS(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
