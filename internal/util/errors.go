package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required record was not found
	ErrNotFound = errors.New("not found")

	// ErrCatalogNewer indicates the catalog schema version exceeds what this build supports
	ErrCatalogNewer = errors.New("catalog newer than supported")

	// ErrMigrationGap indicates the migration list has no path to the target version
	ErrMigrationGap = errors.New("broken migration graph")

	// ErrCanceled indicates an operation was stopped by its cancellation flag
	ErrCanceled = errors.New("canceled")

	// ErrDuplicate indicates a candidate matched an already-cataloged image
	ErrDuplicate = errors.New("duplicate")

	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
