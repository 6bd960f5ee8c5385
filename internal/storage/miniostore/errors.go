package miniostore

import (
	"github.com/damacus/r2-manager/internal/errs"
	"github.com/minio/minio-go/v7"
)

const codeNoSuchCORS = "NoSuchCORSConfiguration"

// mapError translates a minio SDK error into a *errs.Error. Every backend
// failure is StoreUnavailable except the "no CORS configuration" reply, which
// callers normalize to an empty rule set.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == codeNoSuchCORS {
		return errs.Wrap(errs.ErrKindNoConfiguration, msg, err).WithCode(resp.Code)
	}
	return errs.Wrap(errs.ErrKindStoreUnavailable, msg, err).WithCode(resp.Code)
}
