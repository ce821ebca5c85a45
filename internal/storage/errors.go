package storage

import "fmt"

const (
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         = "E_AUTH_INVALID"
	CodeBucketNotFound      = "E_BUCKET_NOT_FOUND"
	CodeObjectNotFound      = "E_OBJECT_NOT_FOUND"
	CodePermissionDenied    = "E_PERMISSION_DENIED"
	CodeTimeout             = "E_TIMEOUT"
	CodeReadFailed          = "E_READ_FAILED"
	CodeWriteFailed         = "E_WRITE_FAILED"
	CodeInvalidURI          = "E_INVALID_URI"
)

// Error wraps object storage failures with retryability hints.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code so callers can test against a bare
// &Error{Code: CodeObjectNotFound}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Code == e.Code
}

func wrapError(code string, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}
