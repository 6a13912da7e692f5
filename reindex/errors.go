package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidBatchSize is returned when the batch size is <= 0
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrInvalidReportInterval is returned when the report interval is <= 0
	ErrInvalidReportInterval = errors.New("report interval must be greater than 0")

	// ErrRepositoriesRequired is returned when no repositories are provided.
	ErrRepositoriesRequired = errors.New("repositories required")
)
