// Package domain defines the core entities and interfaces for gitdeps.
package domain

import "time"

// DependencyKind identifies how a dependency name was resolved.
type DependencyKind string

const (
	// KindGit indicates the name was treated as a remote git repository URL.
	KindGit DependencyKind = "git"

	// KindSearchPath indicates the name was matched against the search paths.
	KindSearchPath DependencyKind = "search-path"
)

// Name prefixes that select the resolution branch explicitly.
// Names without a prefix fall back to URL parsing.
const (
	// GitPrefix forces a name to be treated as a git URL, e.g. "git+https://host/org/repo.git".
	GitPrefix = "git+"

	// PathPrefix forces a name to be looked up in the search paths, e.g. "path:widget".
	PathPrefix = "path:"
)

// Layout selects how a remote URL maps to a working-copy directory name.
type Layout string

const (
	// LayoutBasename names the working copy after the URL path basename with
	// its extension removed: https://example.com/org/widget.git -> widget.
	LayoutBasename Layout = "basename"

	// LayoutHashed appends a short hash of the full URL to the basename so
	// distinct URLs sharing a basename never share a working copy.
	LayoutHashed Layout = "hashed"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutBasename || l == LayoutHashed
}

// DefaultCacheDirName is the cache root used when none is configured,
// resolved against the process working directory.
const DefaultCacheDirName = "gitdeps"

// Resolution describes where a dependency's contents live on disk.
type Resolution struct {
	// Name is the dependency name as supplied by the caller.
	Name string

	// Kind reports which branch resolved the name.
	Kind DependencyKind

	// Path is the directory holding the dependency.
	Path string

	// URL is the remote the working copy tracks. Empty for search-path matches.
	URL string

	// Cloned is true when this resolution performed a fresh clone.
	Cloned bool

	// Stale is true when the fetch failed and the previously fetched
	// working copy was returned instead.
	Stale bool

	// Duration is the wall time spent resolving.
	Duration time.Duration
}

// ResolutionRecord is one audit row describing a resolution attempt.
type ResolutionRecord struct {
	Name       string
	Kind       DependencyKind
	Path       string
	URL        string
	Found      bool
	Cloned     bool
	Stale      bool
	Failure    FailureKind
	Error      string
	DurationMS int64
	ResolvedAt time.Time
}
