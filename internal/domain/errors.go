package domain

import "errors"

// Domain-level errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternalError     = errors.New("internal error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidationFailed  = errors.New("validation failed")
	ErrConnection        = errors.New("connection failed")
	ErrStoreUnavailable  = errors.New("datastore unavailable")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrAdmissionRejected = errors.New("rate limit exceeded")
	ErrBusClosed         = errors.New("event bus is closed")
)
