package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrSourceUnavailable marks a text source that could not be read.
	// Ingestion of that chunk is skipped and the model is left unchanged.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedModel marks a persisted table that could not be parsed.
	ErrMalformedModel = errors.New("malformed model")
)
