package models

import "time"

// FolderEntry is one sub-folder of a listed level. Name is the full prefix
// including the trailing slash.
type FolderEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// FileEntry is one object of a listed level. URL is only set on the visible
// page and expires with the signature.
type FileEntry struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	FormattedSize string    `json:"formattedSize"`
	LastModified  time.Time `json:"lastModified"`
	Type          string    `json:"type"`
	ContentType   string    `json:"contentType"`
	Preview       string    `json:"preview,omitempty"`
	URL           string    `json:"url,omitempty"`
}

// InventoryEntry is a bucket-wide record used for statistics. It never
// carries a signed URL.
type InventoryEntry struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// BucketStats aggregates every file in the bucket.
type BucketStats struct {
	TotalFiles int   `json:"totalFiles"`
	TotalSize  int64 `json:"totalSize"`
}

// Pagination describes the page returned and the full level it was cut from.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalFiles  int  `json:"totalFiles"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListingPage is the response of GET /storage.
type ListingPage struct {
	Folders    []FolderEntry    `json:"folders"`
	Files      []FileEntry      `json:"files"`
	AllFiles   []InventoryEntry `json:"allFiles,omitzero"`
	Stats      *BucketStats     `json:"stats,omitempty"`
	Pagination Pagination       `json:"pagination"`
}
