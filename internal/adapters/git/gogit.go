// Package git provides adapters for cloning and fetching Git repositories.
// This package implements the domain.GitClient interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/revlist"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// DefaultRemoteName is the remote every working copy is cloned from and fetched against.
const DefaultRemoteName = "origin"

// errNoRemoteURL indicates the origin remote has no URL configured.
var errNoRemoteURL = errors.New("origin remote has no URLs configured")

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitClient implements domain.GitClient using go-git/v5.
type GoGitClient struct {
	credentials domain.Credentials
	progress    io.Writer
	logger      Logger
}

// NewGoGitClient creates a new GoGitClient.
// Credentials are only sent to HTTP(S) remotes; SSH remotes use the local agent.
func NewGoGitClient(credentials domain.Credentials, log Logger) *GoGitClient {
	return &GoGitClient{
		credentials: credentials,
		logger:      log,
	}
}

// WithProgress returns a copy of the client that streams remote progress to w.
func (c *GoGitClient) WithProgress(w io.Writer) *GoGitClient {
	clone := *c
	clone.progress = w
	return &clone
}

// IsRepository reports whether path holds a repository go-git can open.
// A directory whose .git is missing, empty, or lacks HEAD is not a repository.
func (c *GoGitClient) IsRepository(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// Clone clones url into path and verifies every cloned remote-tracking
// reference resolves to a complete object graph.
// An empty remote yields a working copy with no history that tracks url.
func (c *GoGitClient) Clone(ctx context.Context, url, path string) error {
	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:        url,
		RemoteName: DefaultRemoteName,
		Auth:       authMethod(url, c.credentials),
		Progress:   c.progress,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return c.initEmpty(ctx, url, path)
	}
	if err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, classifyError(err), err)
	}

	refs, err := remoteRefs(repo)
	if err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, domain.FailureCorrupt, err)
	}
	if err := verifyConnectivity(repo, refs, nil); err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, domain.FailureCorrupt, err)
	}

	c.logger.Debug(ctx, "cloned repository", map[string]interface{}{
		"url":         url,
		"path":        path,
		"remote_refs": len(refs),
	})
	return nil
}

// Fetch updates the remote-tracking references of the working copy at path.
// Objects reachable from references that moved are checked for connectivity;
// a missing object fails the fetch as a corrupt repository.
func (c *GoGitClient) Fetch(ctx context.Context, path string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return domain.NewRepositoryError(domain.OpOpen, "", path, domain.FailureCorrupt, err)
	}

	url, err := originURL(repo)
	if err != nil {
		return domain.NewRepositoryError(domain.OpOpen, "", path, domain.FailureCorrupt, err)
	}

	before, err := remoteRefs(repo)
	if err != nil {
		return domain.NewRepositoryError(domain.OpFetch, url, path, domain.FailureCorrupt, err)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: DefaultRemoteName,
		Auth:       authMethod(url, c.credentials),
		Progress:   c.progress,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) || errors.Is(err, transport.ErrEmptyRemoteRepository) {
		c.logger.Debug(ctx, "working copy already up to date", map[string]interface{}{
			"url":   url,
			"path":  path,
			"empty": errors.Is(err, transport.ErrEmptyRemoteRepository),
		})
		return nil
	}
	if err != nil {
		return domain.NewRepositoryError(domain.OpFetch, url, path, classifyError(err), err)
	}

	after, err := remoteRefs(repo)
	if err != nil {
		return domain.NewRepositoryError(domain.OpFetch, url, path, domain.FailureCorrupt, err)
	}

	changed := changedRefs(before, after)
	if err := verifyConnectivity(repo, changed, before); err != nil {
		return domain.NewRepositoryError(domain.OpFetch, url, path, domain.FailureCorrupt, err)
	}

	c.logger.Debug(ctx, "fetched repository", map[string]interface{}{
		"url":          url,
		"path":         path,
		"changed_refs": len(changed),
	})
	return nil
}

// RemoteURL returns the first URL of the origin remote of the working copy at path.
// A working copy without a usable origin is reported as a corrupt repository.
func (c *GoGitClient) RemoteURL(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", domain.NewRepositoryError(domain.OpOpen, "", path, classifyError(err), err)
	}
	url, err := originURL(repo)
	if err != nil {
		return "", domain.NewRepositoryError(domain.OpOpen, "", path, domain.FailureCorrupt, err)
	}
	return url, nil
}

// initEmpty creates a repository at path whose origin is url.
// go-git refuses to clone a remote without references; later fetches pick up
// the first pushed branch.
func (c *GoGitClient) initEmpty(ctx context.Context, url, path string) error {
	// A failed clone may leave a partial .git behind when path already existed.
	if err := os.RemoveAll(filepath.Join(path, git.GitDirName)); err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, domain.FailureIO, err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, classifyError(err), err)
	}
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: DefaultRemoteName,
		URLs: []string{url},
	})
	if err != nil {
		return domain.NewRepositoryError(domain.OpClone, url, path, classifyError(err), err)
	}

	c.logger.Warn(ctx, "remote repository is empty; working copy has no history", map[string]interface{}{
		"url":  url,
		"path": path,
	})
	return nil
}

func originURL(repo *git.Repository) (string, error) {
	remote, err := repo.Remote(DefaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("failed to get origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errNoRemoteURL
	}
	return urls[0], nil
}

// remoteRefs returns the hash of every remote-tracking reference.
func remoteRefs(repo *git.Repository) (map[plumbing.ReferenceName]plumbing.Hash, error) {
	iter, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer iter.Close()

	refs := make(map[plumbing.ReferenceName]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && ref.Name().IsRemote() {
			refs[ref.Name()] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk references: %w", err)
	}
	return refs, nil
}

// changedRefs returns the references in after that are new or moved since before.
func changedRefs(before, after map[plumbing.ReferenceName]plumbing.Hash) map[plumbing.ReferenceName]plumbing.Hash {
	changed := make(map[plumbing.ReferenceName]plumbing.Hash)
	for name, hash := range after {
		if old, ok := before[name]; !ok || old != hash {
			changed[name] = hash
		}
	}
	return changed
}

// verifyConnectivity walks every object reachable from want, skipping objects
// already reachable from have, and fails on the first missing object.
func verifyConnectivity(repo *git.Repository, want, have map[plumbing.ReferenceName]plumbing.Hash) error {
	if len(want) == 0 {
		return nil
	}

	wantHashes := make([]plumbing.Hash, 0, len(want))
	for _, hash := range want {
		wantHashes = append(wantHashes, hash)
	}
	haveHashes := make([]plumbing.Hash, 0, len(have))
	for _, hash := range have {
		haveHashes = append(haveHashes, hash)
	}

	if _, err := revlist.Objects(repo.Storer, wantHashes, haveHashes); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	return nil
}
