package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// ManagerOptions configures a GitWorkingCopyManager.
type ManagerOptions struct {
	// CacheRoot is the directory holding all working copies.
	// Relative paths are resolved against the process working directory once,
	// at construction. Defaults to domain.DefaultCacheDirName.
	CacheRoot string

	// Layout selects the working-copy naming rule. Defaults to domain.LayoutBasename.
	Layout domain.Layout

	// AllowStale returns an existing working copy when its fetch fails
	// instead of failing the resolution.
	AllowStale bool
}

// GitWorkingCopyManager keeps one working copy per remote URL under a cache root.
//
// A working copy is Absent when its directory is missing or holds no intact
// repository; only then is a clone issued. Every resolution then fetches the
// working copy. The working tree itself is never checked out or merged.
type GitWorkingCopyManager struct {
	git        domain.GitClient
	cacheRoot  string
	layout     domain.Layout
	allowStale bool
	logger     Logger
}

// NewGitWorkingCopyManager creates a new GitWorkingCopyManager.
func NewGitWorkingCopyManager(gitClient domain.GitClient, opts ManagerOptions, log Logger) (*GitWorkingCopyManager, error) {
	root := opts.CacheRoot
	if root == "" {
		root = domain.DefaultCacheDirName
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root %s: %w", root, err)
	}

	layout := opts.Layout
	if layout == "" {
		layout = domain.LayoutBasename
	}

	return &GitWorkingCopyManager{
		git:        gitClient,
		cacheRoot:  absRoot,
		layout:     layout,
		allowStale: opts.AllowStale,
		logger:     log,
	}, nil
}

// CacheRoot returns the absolute cache root.
func (m *GitWorkingCopyManager) CacheRoot() string {
	return m.cacheRoot
}

// Locate ensures a fetched working copy of rawURL exists and returns its path.
// Clone and fetch failures abort the resolution with a *domain.RepositoryError,
// unless AllowStale is set and the working copy existed before this call.
func (m *GitWorkingCopyManager) Locate(ctx context.Context, rawURL string) (*domain.Resolution, error) {
	start := time.Now()

	workingCopy, err := WorkingCopyPath(m.cacheRoot, rawURL, m.layout)
	if err != nil {
		return nil, err
	}

	result := &domain.Resolution{
		Name: rawURL,
		Kind: domain.KindGit,
		Path: workingCopy,
		URL:  rawURL,
	}

	if m.git.IsRepository(workingCopy) {
		if err := m.checkOrigin(workingCopy, rawURL); err != nil {
			return nil, err
		}
	} else {
		if err := m.clone(ctx, rawURL, workingCopy); err != nil {
			return nil, err
		}
		result.Cloned = true
	}

	m.logger.Info(ctx, "fetching dependency", map[string]interface{}{
		"url":          rawURL,
		"working_copy": workingCopy,
	})

	if err := m.git.Fetch(ctx, workingCopy); err != nil {
		fetchErr := asRepositoryError(domain.OpFetch, rawURL, workingCopy, err)
		if m.allowStale && !result.Cloned {
			m.logger.Warn(ctx, "fetch failed; using stale working copy", map[string]interface{}{
				"url":          rawURL,
				"working_copy": workingCopy,
				"failure":      string(fetchErr.Kind),
				"error":        fetchErr.Error(),
			})
			result.Stale = true
			result.Duration = time.Since(start)
			return result, nil
		}
		return nil, fetchErr
	}

	result.Duration = time.Since(start)
	return result, nil
}

// clone replaces whatever is at workingCopy with a fresh clone of rawURL.
func (m *GitWorkingCopyManager) clone(ctx context.Context, rawURL, workingCopy string) error {
	if _, err := os.Stat(workingCopy); err == nil {
		m.logger.Warn(ctx, "working copy is not an intact repository; removing it", map[string]interface{}{
			"working_copy": workingCopy,
		})
		if err := os.RemoveAll(workingCopy); err != nil {
			return domain.NewRepositoryError(domain.OpClone, rawURL, workingCopy, domain.FailureIO, err)
		}
	}

	m.logger.Info(ctx, "cloning dependency", map[string]interface{}{
		"url":          rawURL,
		"working_copy": workingCopy,
	})

	if err := m.git.Clone(ctx, rawURL, workingCopy); err != nil {
		return asRepositoryError(domain.OpClone, rawURL, workingCopy, err)
	}
	return nil
}

// checkOrigin fails when an existing working copy tracks a different remote,
// which happens when two URLs share a basename.
func (m *GitWorkingCopyManager) checkOrigin(workingCopy, rawURL string) error {
	origin, err := m.git.RemoteURL(workingCopy)
	if err != nil {
		return asRepositoryError(domain.OpOpen, rawURL, workingCopy, err)
	}
	if !sameRemote(origin, rawURL) {
		return fmt.Errorf("%w: %s tracks %s, requested %s",
			domain.ErrWorkingCopyConflict, workingCopy, origin, rawURL)
	}
	return nil
}

// asRepositoryError returns err as a *domain.RepositoryError, wrapping it
// with an unknown failure kind when the client did not classify it.
func asRepositoryError(op, rawURL, workingCopy string, err error) *domain.RepositoryError {
	var repoErr *domain.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.URL == "" {
			withURL := *repoErr
			withURL.URL = rawURL
			return &withURL
		}
		return repoErr
	}
	return domain.NewRepositoryError(op, rawURL, workingCopy, domain.FailureUnknown, err)
}
