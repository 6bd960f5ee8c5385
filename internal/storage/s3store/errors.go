package s3store

import (
	"errors"

	"github.com/aws/smithy-go"
	"github.com/damacus/r2-manager/internal/errs"
)

const codeNoSuchCORS = "NoSuchCORSConfiguration"

// apiError exposes the backend's own message through errs.PublicMessage while
// keeping the SDK error reachable with errors.As.
type apiError struct {
	message string
	err     error
}

func (e *apiError) Error() string { return e.message }
func (e *apiError) Unwrap() error { return e.err }

// wrapError converts SDK errors to *errs.Error. The S3 error code is kept on
// the result; its message becomes the public message.
func wrapError(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return errs.Wrap(errs.ErrKindStoreUnavailable, op, err)
	}

	code := apiErr.ErrorCode()
	msg := apiErr.ErrorMessage()
	if msg == "" {
		msg = code
	}
	cause := &apiError{message: msg, err: err}

	if code == codeNoSuchCORS {
		return errs.Wrap(errs.ErrKindNoConfiguration, op, cause).WithCode(code)
	}
	return errs.Wrap(errs.ErrKindStoreUnavailable, op, cause).WithCode(code)
}
