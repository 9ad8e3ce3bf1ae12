package domain

import (
	"errors"
	"fmt"
)

// Domain errors for dependency resolution.
var (
	// ErrEmptyName indicates an empty dependency name was supplied.
	ErrEmptyName = errors.New("dependency name is empty")

	// ErrInvalidRemoteURL indicates a URL whose path yields no usable working-copy name.
	ErrInvalidRemoteURL = errors.New("remote URL has no repository name in its path")

	// ErrWorkingCopyConflict indicates the working copy for a URL already tracks a different remote.
	ErrWorkingCopyConflict = errors.New("working copy already tracks a different remote")

	// ErrRepositoryOperation matches every RepositoryError via errors.Is.
	ErrRepositoryOperation = errors.New("repository operation failed")
)

// FailureKind classifies a failed repository operation.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureNetwork        FailureKind = "network"
	FailureAuth           FailureKind = "auth"
	FailureRemoteNotFound FailureKind = "remote-not-found"
	FailureCorrupt        FailureKind = "corrupt-repository"
	FailureIO             FailureKind = "io"
	FailureUnknown        FailureKind = "unknown"
)

// Repository operations reported in RepositoryError.Op.
const (
	OpOpen  = "open"
	OpClone = "clone"
	OpFetch = "fetch"
)

// RepositoryError is returned when a clone, fetch or open operation cannot complete.
type RepositoryError struct {
	Op   string
	URL  string
	Path string
	Kind FailureKind
	Err  error
}

// NewRepositoryError wraps err as a RepositoryError.
func NewRepositoryError(op, url, path string, kind FailureKind, err error) *RepositoryError {
	return &RepositoryError{Op: op, URL: url, Path: path, Kind: kind, Err: err}
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s %s into %s failed (%s): %v", e.Op, e.URL, e.Path, e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRepositoryOperation.
func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepositoryOperation
}

// Retryable reports whether repeating the operation might succeed.
// Only network failures are considered transient.
func (e *RepositoryError) Retryable() bool {
	return e.Kind == FailureNetwork
}

// FailureKindOf returns the failure kind carried by err, FailureUnknown for
// other non-nil errors and FailureNone for nil.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Kind
	}
	return FailureUnknown
}
