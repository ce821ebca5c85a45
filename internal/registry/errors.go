package registry

import "errors"

var (
	// ErrModelNotFound is returned when name resolution finds no model.
	ErrModelNotFound = errors.New("model not found")
	// ErrModelRegistrationFailed is returned when the registry rejects a
	// registration.
	ErrModelRegistrationFailed = errors.New("model registration failed")
	// ErrDataUploadFailed is returned when the reference data submission is
	// rejected or its processing ends in a non-success state.
	ErrDataUploadFailed = errors.New("data upload failed")
	// ErrAPINotAvailable is returned when the registry cannot be reached or
	// keeps failing past the retry budget.
	ErrAPINotAvailable = errors.New("registry API not available")
	// ErrTimeout is returned when profiling is still in progress after the
	// poll timeout.
	ErrTimeout = errors.New("timed out waiting for data processing")
)
