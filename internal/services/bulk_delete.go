package services

import (
	"context"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/storage"
)

// BulkDeleter removes arbitrary numbers of keys in store-sized chunks.
//
// Deletion is best effort and not atomic: chunks already processed stay
// deleted when a later chunk fails.
type BulkDeleter struct {
	store     storage.Store
	chunkSize int
	log       *logger.Logger
}

func NewBulkDeleter(store storage.Store, chunkSize int, log *logger.Logger) *BulkDeleter {
	if chunkSize <= 0 || chunkSize > storage.MaxDeleteKeys {
		chunkSize = storage.MaxDeleteKeys
	}
	return &BulkDeleter{store: store, chunkSize: chunkSize, log: log}
}

// Delete issues one multi-delete call per chunk, sequentially, and attempts
// every chunk. Per-key rejections land in the report. When one or more
// chunk calls fail as a whole the report is still returned together with
// the first such error.
func (d *BulkDeleter) Delete(ctx context.Context, keys []string) (*models.BulkDeleteReport, error) {
	if len(keys) == 0 {
		return nil, errs.InvalidArgument("No keys provided")
	}

	report := &models.BulkDeleteReport{}
	accounted := make(map[string]bool, len(keys))
	failed := make(map[string]bool)
	var firstErr error

	for start := 0; start < len(keys); start += d.chunkSize {
		chunk := keys[start:min(start+d.chunkSize, len(keys))]

		out, err := d.store.DeleteObjects(ctx, chunk)
		if err != nil {
			report.FailedChunks++
			for _, key := range chunk {
				failed[key] = true
			}
			if firstErr == nil {
				firstErr = err
			}
			d.log.Error().Err(err).
				Int("chunk_start", start).
				Int("chunk_size", len(chunk)).
				Msg("bulk delete chunk failed")
			continue
		}

		for _, key := range out.Deleted {
			accounted[key] = true
			report.Deleted = append(report.Deleted, key)
		}
		for _, e := range out.Errors {
			accounted[e.Key] = true
			report.Errors = append(report.Errors, models.KeyError{
				Key:     e.Key,
				Code:    e.Code,
				Message: e.Message,
			})
		}
	}

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] || accounted[key] || failed[key] {
			continue
		}
		seen[key] = true
		report.Unaccounted = append(report.Unaccounted, key)
	}
	if len(report.Unaccounted) > 0 {
		d.log.Warn().
			Int("count", len(report.Unaccounted)).
			Strs("keys", report.Unaccounted).
			Msg("store reported neither success nor failure for some keys")
	}

	return report, firstErr
}
