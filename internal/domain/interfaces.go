// Package domain defines the core entities and interfaces for gitdeps.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import "context"

// GitClient provides the three git capabilities the resolver relies on.
type GitClient interface {
	// IsRepository reports whether path holds an intact repository working copy.
	// A missing directory or one without version-control metadata returns false.
	IsRepository(path string) bool

	// Clone clones url into path.
	// Failures are returned as *RepositoryError.
	Clone(ctx context.Context, url, path string) error

	// Fetch updates the remote-tracking references of the working copy at path
	// and verifies that every fetched object is reachable in the local store.
	// An up-to-date remote is not an error.
	// Failures are returned as *RepositoryError.
	Fetch(ctx context.Context, path string) error

	// RemoteURL returns the URL of the origin remote of the working copy at path.
	RemoteURL(path string) (string, error)
}

// WorkingCopyManager materializes remote repositories into local working copies.
type WorkingCopyManager interface {
	// Locate ensures a fetched working copy of rawURL exists and returns it.
	Locate(ctx context.Context, rawURL string) (*Resolution, error)
}

// Locator resolves a dependency name to a directory.
type Locator interface {
	// Locate returns the resolution for name.
	// Returns (nil, nil) when a local dependency is not found in any search path.
	Locate(ctx context.Context, name string) (*Resolution, error)
}

// OutputWriter writes resolved dependency paths to an output destination.
type OutputWriter interface {
	// WritePath writes one resolved path.
	WritePath(path string) error
}

// ResolutionRecorder persists an audit trail of resolutions.
type ResolutionRecorder interface {
	// Record stores one resolution attempt.
	Record(ctx context.Context, record ResolutionRecord) error

	// Close releases any resources held by the recorder.
	Close() error
}

// Credentials authenticate git operations against HTTP remotes.
type Credentials struct {
	Username string
	Token    string
}

// IsEmpty reports whether no credentials are set.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Token == ""
}
