// Package services implements the listing engine, pagination, URL signing,
// bulk deletion and the bucket settings passthrough on top of storage.Store.
package services

import (
	"context"
	"strings"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/damacus/r2-manager/internal/utils"
)

// Level is one shaped folder level. Files carry no signed URL yet.
type Level struct {
	Folders []models.FolderEntry
	Files   []models.FileEntry
}

// Lister turns the store's flat key space into folder levels and bucket
// inventories.
type Lister struct {
	store    storage.Store
	pageSize int
	log      *logger.Logger
}

// NewLister creates a Lister. pageSize is the MaxKeys of each store call.
func NewLister(store storage.Store, pageSize int, log *logger.Logger) *Lister {
	return &Lister{
		store:    store,
		pageSize: storage.ClampMaxKeys(pageSize, storage.MaxListKeys),
		log:      log,
	}
}

// walk follows the continuation cursor until the store reports no more
// pages. Calls are sequential; each cursor depends on the previous reply.
func (l *Lister) walk(ctx context.Context, prefix, delimiter string, fn func(*storage.ListOutput)) (int, error) {
	cursor := ""
	pages := 0
	for {
		out, err := l.store.ListPage(ctx, storage.ListInput{
			Prefix:    prefix,
			Delimiter: delimiter,
			Cursor:    cursor,
			MaxKeys:   l.pageSize,
		})
		if err != nil {
			return pages, err
		}
		pages++
		fn(out)

		if out.NextCursor == "" {
			return pages, nil
		}
		if out.NextCursor == cursor {
			return pages, errs.New(errs.ErrKindStoreUnavailable, "store returned the same continuation token twice")
		}
		cursor = out.NextCursor
	}
}

// ListFolder lists one level under prefix using the "/" delimiter.
//
// The placeholder object equal to prefix and any other folder marker are
// dropped. Entries whose key does not start with prefix are dropped too.
// Any prefix string is accepted, including one without a trailing slash.
func (l *Lister) ListFolder(ctx context.Context, prefix string) (*Level, error) {
	level := &Level{
		Folders: []models.FolderEntry{},
		Files:   []models.FileEntry{},
	}

	_, err := l.walk(ctx, prefix, storage.Delimiter, func(out *storage.ListOutput) {
		for _, cp := range out.CommonPrefixes {
			if entry, ok := folderEntry(prefix, cp); ok {
				level.Folders = append(level.Folders, entry)
			}
		}
		for _, obj := range out.Objects {
			if entry, ok := fileEntry(prefix, obj); ok {
				level.Files = append(level.Files, entry)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

func folderEntry(prefix, commonPrefix string) (models.FolderEntry, bool) {
	if !strings.HasPrefix(commonPrefix, prefix) {
		return models.FolderEntry{}, false
	}
	rel := commonPrefix[len(prefix):]
	if rel == "" {
		return models.FolderEntry{}, false
	}
	// "photos/" under "photos", or "a//" under "a/", strips to nothing.
	name := strings.TrimSuffix(rel, storage.Delimiter)
	if name == "" {
		name = rel
	}
	return models.FolderEntry{Name: commonPrefix, DisplayName: name}, true
}

func fileEntry(prefix string, obj storage.Object) (models.FileEntry, bool) {
	if obj.Key == prefix || storage.IsFolderMarker(obj.Key) || !strings.HasPrefix(obj.Key, prefix) {
		return models.FileEntry{}, false
	}
	contentType := utils.ContentTypeFromExt(obj.Key)
	return models.FileEntry{
		Key:           obj.Key,
		Name:          obj.Key[len(prefix):],
		Size:          obj.Size,
		FormattedSize: utils.FormatFileSize(obj.Size),
		LastModified:  obj.LastModified,
		Type:          utils.TypeTag(obj.Key),
		ContentType:   contentType,
		Preview:       utils.PreviewKind(contentType),
	}, true
}

// ListAll returns every object under prefix, recursively, without folder
// markers. This is the slow path: one sequential store call per page and
// the whole result held in memory.
func (l *Lister) ListAll(ctx context.Context, prefix string) ([]storage.Object, error) {
	var objects []storage.Object
	pages, err := l.walk(ctx, prefix, "", func(out *storage.ListOutput) {
		for _, obj := range out.Objects {
			if !storage.IsFolderMarker(obj.Key) {
				objects = append(objects, obj)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug().
		Str("prefix", prefix).
		Int("pages", pages).
		Int("objects", len(objects)).
		Msg("listed all objects")
	return objects, nil
}

// ListKeys returns every key under prefix including folder markers.
func (l *Lister) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	_, err := l.walk(ctx, prefix, "", func(out *storage.ListOutput) {
		for _, obj := range out.Objects {
			keys = append(keys, obj.Key)
		}
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Inventory lists every file under prefix and aggregates count and size.
// Entries are never signed.
func (l *Lister) Inventory(ctx context.Context, prefix string) ([]models.InventoryEntry, models.BucketStats, error) {
	objects, err := l.ListAll(ctx, prefix)
	if err != nil {
		return nil, models.BucketStats{}, err
	}

	entries := make([]models.InventoryEntry, 0, len(objects))
	stats := models.BucketStats{TotalFiles: len(objects)}
	for _, obj := range objects {
		stats.TotalSize += obj.Size
		entries = append(entries, models.InventoryEntry{
			Key:          obj.Key,
			Name:         obj.Key[strings.LastIndex(obj.Key, storage.Delimiter)+1:],
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return entries, stats, nil
}
