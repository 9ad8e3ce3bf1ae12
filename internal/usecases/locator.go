// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// DependencyLocator resolves dependency names to directories.
// Names that are remote URLs are delegated to a WorkingCopyManager; any other
// name is looked up as a subdirectory of the search paths, first match wins.
type DependencyLocator struct {
	searchPaths []string
	manager     domain.WorkingCopyManager
	logger      Logger
}

// NewDependencyLocator creates a new DependencyLocator.
// The search paths are copied and are not checked for existence.
func NewDependencyLocator(searchPaths []string, manager domain.WorkingCopyManager, log Logger) *DependencyLocator {
	return &DependencyLocator{
		searchPaths: append([]string(nil), searchPaths...),
		manager:     manager,
		logger:      log,
	}
}

// SearchPaths returns a copy of the configured search paths.
func (l *DependencyLocator) SearchPaths() []string {
	return append([]string(nil), l.searchPaths...)
}

// Locate resolves name to a directory.
//
// A name prefixed with domain.GitPrefix, or one that parses as a remote URL,
// is materialized through the WorkingCopyManager and the search paths are
// never consulted. A name prefixed with domain.PathPrefix, or one that does
// not parse, is looked up in the search paths in order.
//
// Returns (nil, nil) when no search path contains the dependency.
func (l *DependencyLocator) Locate(ctx context.Context, name string) (*domain.Resolution, error) {
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	start := time.Now()
	l.logger.Info(ctx, "searching for dependency", map[string]interface{}{
		"name": name,
	})

	kind, target := classify(name)
	if target == "" {
		return nil, domain.ErrEmptyName
	}

	if kind == domain.KindGit {
		result, err := l.manager.Locate(ctx, target)
		if err != nil {
			return nil, err
		}
		result.Name = name
		result.Duration = time.Since(start)
		return result, nil
	}

	dir := l.search(ctx, target)
	if dir == "" {
		l.logger.Debug(ctx, "dependency not found in search paths", map[string]interface{}{
			"name":         name,
			"search_paths": len(l.searchPaths),
		})
		return nil, nil
	}

	return &domain.Resolution{
		Name:     name,
		Kind:     domain.KindSearchPath,
		Path:     dir,
		Duration: time.Since(start),
	}, nil
}

// search returns the first <searchPath>/<name> that is a directory, or "".
func (l *DependencyLocator) search(ctx context.Context, name string) string {
	for _, searchPath := range l.searchPaths {
		l.logger.Info(ctx, "checking search path", map[string]interface{}{
			"search_path": searchPath,
		})

		candidate := filepath.Join(searchPath, name)
		info, err := os.Stat(candidate)
		if err != nil || !info.IsDir() {
			continue
		}

		l.logger.Info(ctx, "found dependency", map[string]interface{}{
			"path": candidate,
		})
		return candidate
	}
	return ""
}

// classify decides which branch resolves name and returns the name with any
// branch prefix removed.
func classify(name string) (domain.DependencyKind, string) {
	switch {
	case strings.HasPrefix(name, domain.GitPrefix):
		return domain.KindGit, strings.TrimPrefix(name, domain.GitPrefix)
	case strings.HasPrefix(name, domain.PathPrefix):
		return domain.KindSearchPath, strings.TrimPrefix(name, domain.PathPrefix)
	}

	if _, ok := parseRemoteURL(name); ok {
		return domain.KindGit, name
	}
	return domain.KindSearchPath, name
}
