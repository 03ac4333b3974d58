package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrFileNotFound       = fmt.Errorf("%w: file", ErrNotFound)
	ErrMergedFileNotFound = fmt.Errorf("%w: merged file", ErrNotFound)

	// Analysis errors
	ErrDownloadFailed  = errors.New("download timeout/failed")
	ErrNoDateColumn    = errors.New("no date/time columns found")
	ErrNoParsableDates = errors.New("no valid dates could be parsed")

	// Merge errors
	ErrIncompatibleFiles = errors.New("files are not compatible for merging")
	ErrMergeConflict     = errors.New("merge conflict with no matching rule")
	ErrTooFewFiles       = errors.New("merge requires at least two files")

	// Persistence errors
	ErrPersistenceFailed = errors.New("failed to persist merged file")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewDownloadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, path, err)
}

func NewIncompatibleError(reason string) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleFiles, reason)
}

func NewConflictError(column string, timeKey string) error {
	return fmt.Errorf("%w: column %q at %q", ErrMergeConflict, column, timeKey)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrDownloadFailed) ||
		errors.Is(err, ErrNoDateColumn) ||
		errors.Is(err, ErrNoParsableDates)
}

func IsMergeError(err error) bool {
	return errors.Is(err, ErrIncompatibleFiles) ||
		errors.Is(err, ErrMergeConflict) ||
		errors.Is(err, ErrTooFewFiles)
}
