package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildBreadcrumbs(t *testing.T) {
	assert.Empty(t, BuildBreadcrumbs(""))
	assert.Equal(t, []Breadcrumb{
		{Name: "photos", Path: "photos/"},
		{Name: "2024", Path: "photos/2024/"},
	}, BuildBreadcrumbs("photos/2024/"))
	assert.Equal(t, []Breadcrumb{{Name: "a", Path: "a/"}}, BuildBreadcrumbs("a//"))
}

func TestNewBulkDeleteResponse(t *testing.T) {
	resp := NewBulkDeleteResponse(&BulkDeleteReport{Deleted: []string{"a", "b"}})
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Deleted)
	assert.NotNil(t, resp.Errors, "errors must serialize as []")

	resp = NewBulkDeleteResponse(&BulkDeleteReport{
		Deleted:      []string{"a"},
		Errors:       []KeyError{{Key: "b", Code: "AccessDenied"}},
		FailedChunks: 1,
	})
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.FailedChunks)
	assert.Len(t, resp.Errors, 1)
}
