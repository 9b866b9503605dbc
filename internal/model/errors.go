package model

import "errors"

var (
	// ErrInvalidInput is returned for malformed arguments such as a negative
	// limit or an unknown kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable is returned when the long-term backend cannot be
	// reached.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSummarizationFailed is returned when a summarizer backend fails.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrNotFound is returned by stores for unknown ids.
	ErrNotFound = errors.New("memory not found")
)
