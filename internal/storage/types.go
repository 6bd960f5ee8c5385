package storage

import (
	"io"
	"strings"
	"time"
)

// ListInput selects one page of a list call.
type ListInput struct {
	Prefix string
	// Delimiter groups keys into CommonPrefixes. Empty lists recursively.
	Delimiter string
	// Cursor is the continuation token from a previous page.
	Cursor  string
	MaxKeys int
}

// ListOutput is one page of a list call.
type ListOutput struct {
	Objects        []Object
	CommonPrefixes []string
	// NextCursor is empty when the listing is complete.
	NextCursor string
}

// Object is a snapshot of one stored object taken at list time.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// IsFolderMarker reports whether key is a zero-length "folder" placeholder.
func IsFolderMarker(key string) bool {
	return strings.HasSuffix(key, Delimiter)
}

// ObjectReader streams an object's body.
type ObjectReader struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// DeleteOutput classifies each key of one multi-delete call.
type DeleteOutput struct {
	Deleted []string
	Errors  []DeleteError
}

// DeleteError is a per-key rejection reported by the store.
type DeleteError struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CORSRule mirrors one S3 CORSRule. The JSON names match the S3 API so the
// browser can round-trip rules unchanged.
type CORSRule struct {
	ID             string   `json:"ID,omitempty"`
	AllowedOrigins []string `json:"AllowedOrigins"`
	AllowedMethods []string `json:"AllowedMethods"`
	AllowedHeaders []string `json:"AllowedHeaders,omitempty"`
	ExposeHeaders  []string `json:"ExposeHeaders,omitempty"`
	MaxAgeSeconds  int      `json:"MaxAgeSeconds,omitempty"`
}

// ClampMaxKeys applies the default and the API limit to a requested page size.
func ClampMaxKeys(requested, fallback int) int {
	if requested <= 0 {
		requested = fallback
	}
	if requested <= 0 || requested > MaxListKeys {
		return MaxListKeys
	}
	return requested
}
