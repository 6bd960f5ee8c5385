package services

import (
	"bytes"
	"context"
	"strings"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/models"
	"github.com/damacus/r2-manager/internal/storage"
)

// folderContentType marks zero-byte folder placeholder objects.
const folderContentType = "application/x-directory"

// ObjectService groups the single-object operations and folder actions.
type ObjectService struct {
	store   storage.Store
	lister  *Lister
	signer  *URLSigner
	deleter *BulkDeleter
	log     *logger.Logger
}

func NewObjectService(store storage.Store, lister *Lister, signer *URLSigner, deleter *BulkDeleter, log *logger.Logger) *ObjectService {
	return &ObjectService{
		store:   store,
		lister:  lister,
		signer:  signer,
		deleter: deleter,
		log:     log,
	}
}

// Delete removes one object. Store errors, including a missing key on
// backends that report one, are returned unchanged.
func (s *ObjectService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.InvalidArgument("No key provided")
	}
	return s.store.DeleteObject(ctx, key)
}

// IssueUploadURL returns a short-lived PUT URL. The object only exists once
// the browser completes the upload against it.
func (s *ObjectService) IssueUploadURL(ctx context.Context, filename, contentType string) (string, error) {
	if filename == "" {
		return "", errs.InvalidArgument("No filename provided")
	}
	return s.signer.SignUpload(ctx, filename, contentType)
}

// BulkDelete forwards to the BulkDeleter.
func (s *ObjectService) BulkDelete(ctx context.Context, keys []string) (*models.BulkDeleteReport, error) {
	return s.deleter.Delete(ctx, keys)
}

// CreateFolder writes the "<prefix><name>/" placeholder and returns its key.
func (s *ObjectService) CreateFolder(ctx context.Context, prefix, name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), storage.Delimiter)
	if name == "" {
		return "", errs.InvalidArgument("No folder name provided")
	}

	key := prefix + name + storage.Delimiter
	if err := s.store.PutObject(ctx, key, bytes.NewReader(nil), 0, folderContentType); err != nil {
		return "", err
	}
	return key, nil
}

// DeleteFolder removes every key under prefix, folder markers included.
// The bucket root can not be deleted this way.
func (s *ObjectService) DeleteFolder(ctx context.Context, prefix string) (*models.BulkDeleteReport, error) {
	if prefix == "" || prefix == storage.Delimiter {
		return nil, errs.InvalidArgument("No folder provided")
	}
	if !strings.HasSuffix(prefix, storage.Delimiter) {
		prefix += storage.Delimiter
	}

	keys, err := s.lister.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return &models.BulkDeleteReport{}, nil
	}

	s.log.Info().Str("prefix", prefix).Int("keys", len(keys)).Msg("deleting folder")
	return s.deleter.Delete(ctx, keys)
}

// Open streams an object. The caller must close the reader.
func (s *ObjectService) Open(ctx context.Context, key string) (*storage.ObjectReader, error) {
	if key == "" {
		return nil, errs.InvalidArgument("No key provided")
	}
	return s.store.GetObject(ctx, key)
}
