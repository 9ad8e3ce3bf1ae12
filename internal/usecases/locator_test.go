package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// makeDirs creates each relative directory under root and returns root.
func makeDirs(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	return root
}

func TestDependencyLocator_Locate_SearchPaths(t *testing.T) {
	root := makeDirs(t, "libs/b/foo", "libs/c/foo", "libs/a")
	require.NoError(t, os.WriteFile(filepath.Join(root, "libs/a/bar"), []byte("file"), 0o644))

	libA := filepath.Join(root, "libs/a")
	libB := filepath.Join(root, "libs/b")
	libC := filepath.Join(root, "libs/c")

	tests := []struct {
		name        string
		searchPaths []string
		dependency  string
		wantPath    string
	}{
		{
			name:        "first existing match wins",
			searchPaths: []string{libA, libB, libC},
			dependency:  "foo",
			wantPath:    filepath.Join(libB, "foo"),
		},
		{
			name:        "order of search paths decides",
			searchPaths: []string{libC, libB},
			dependency:  "foo",
			wantPath:    filepath.Join(libC, "foo"),
		},
		{
			name:        "empty search paths",
			searchPaths: nil,
			dependency:  "foo",
		},
		{
			name:        "regular file is not a match",
			searchPaths: []string{libA},
			dependency:  "bar",
		},
		{
			name:        "missing search path is skipped",
			searchPaths: []string{filepath.Join(root, "nope"), libB},
			dependency:  "foo",
			wantPath:    filepath.Join(libB, "foo"),
		},
		{
			name:        "path prefix forces search",
			searchPaths: []string{libB},
			dependency:  "path:foo",
			wantPath:    filepath.Join(libB, "foo"),
		},
		{
			name:        "relative name that is not a URL",
			searchPaths: []string{libA},
			dependency:  "../b/foo",
			wantPath:    filepath.Join(libB, "foo"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &mockManager{}
			locator := NewDependencyLocator(tt.searchPaths, manager, &mockLogger{})

			result, err := locator.Locate(context.Background(), tt.dependency)

			require.NoError(t, err)
			assert.Empty(t, manager.calls)
			if tt.wantPath == "" {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantPath, result.Path)
			assert.Equal(t, domain.KindSearchPath, result.Kind)
			assert.Equal(t, tt.dependency, result.Name)
		})
	}
}

func TestDependencyLocator_Locate_LogsEachPathChecked(t *testing.T) {
	root := makeDirs(t, "a", "b/foo")
	log := &mockLogger{}
	locator := NewDependencyLocator(
		[]string{filepath.Join(root, "a"), filepath.Join(root, "b")}, &mockManager{}, log)

	_, err := locator.Locate(context.Background(), "foo")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"searching for dependency",
		"checking search path",
		"checking search path",
		"found dependency",
	}, log.infoMsgs)
}

func TestDependencyLocator_Locate_URLNeverSearches(t *testing.T) {
	// Each name has a same-named directory in the search path that must be ignored.
	root := makeDirs(t, "libs/widget")

	tests := []struct {
		name       string
		dependency string
		wantURL    string
	}{
		{
			name:       "https URL",
			dependency: "https://example.com/org/widget.git",
			wantURL:    "https://example.com/org/widget.git",
		},
		{
			name:       "ssh URL",
			dependency: "ssh://git@example.com/org/widget.git",
			wantURL:    "ssh://git@example.com/org/widget.git",
		},
		{
			name:       "file URL",
			dependency: "file:///srv/git/widget.git",
			wantURL:    "file:///srv/git/widget.git",
		},
		{
			name:       "git prefix is stripped",
			dependency: "git+https://example.com/org/widget.git",
			wantURL:    "https://example.com/org/widget.git",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &mockManager{result: &domain.Resolution{
				Kind: domain.KindGit,
				Path: "/cache/widget",
				URL:  tt.wantURL,
			}}
			log := &mockLogger{}
			locator := NewDependencyLocator([]string{filepath.Join(root, "libs")}, manager, log)

			result, err := locator.Locate(context.Background(), tt.dependency)

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, []string{tt.wantURL}, manager.calls)
			assert.Equal(t, "/cache/widget", result.Path)
			assert.Equal(t, tt.dependency, result.Name)
			assert.NotContains(t, log.infoMsgs, "checking search path")
		})
	}
}

func TestDependencyLocator_Locate_ManagerFailurePropagates(t *testing.T) {
	fetchErr := domain.NewRepositoryError(domain.OpFetch, "https://example.com/org/widget.git",
		"/cache/widget", domain.FailureNetwork, errors.New("connection reset"))
	manager := &mockManager{err: fetchErr}
	locator := NewDependencyLocator(nil, manager, &mockLogger{})

	result, err := locator.Locate(context.Background(), "https://example.com/org/widget.git")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRepositoryOperation)
	assert.Equal(t, domain.FailureNetwork, domain.FailureKindOf(err))
}

func TestDependencyLocator_Locate_EmptyName(t *testing.T) {
	locator := NewDependencyLocator(nil, &mockManager{}, &mockLogger{})

	for _, name := range []string{"", "path:", "git+"} {
		_, err := locator.Locate(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrEmptyName, name)
	}
}

func TestNewDependencyLocator_CopiesSearchPaths(t *testing.T) {
	paths := []string{"/a", "/b"}
	locator := NewDependencyLocator(paths, &mockManager{}, &mockLogger{})

	paths[0] = "/mutated"

	assert.Equal(t, []string{"/a", "/b"}, locator.SearchPaths())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   domain.DependencyKind
		wantTarget string
	}{
		{"bare identifier", "foo", domain.KindSearchPath, "foo"},
		{"https URL", "https://example.com/org/widget.git", domain.KindGit, "https://example.com/org/widget.git"},
		{"http URL", "http://example.com/widget", domain.KindGit, "http://example.com/widget"},
		{"git scheme", "git://example.com/widget.git", domain.KindGit, "git://example.com/widget.git"},
		{"uppercase scheme", "HTTPS://example.com/widget.git", domain.KindGit, "HTTPS://example.com/widget.git"},
		{"unknown scheme", "mailto:dev@example.com", domain.KindSearchPath, "mailto:dev@example.com"},
		{"scheme without host or path", "https:", domain.KindSearchPath, "https:"},
		{"malformed URL", "https://exa mple.com/%zz", domain.KindSearchPath, "https://exa mple.com/%zz"},
		{"relative path", "vendor/widget", domain.KindSearchPath, "vendor/widget"},
		{"scp style address", "git@example.com:org/widget.git", domain.KindSearchPath, "git@example.com:org/widget.git"},
		{"git prefix", "git+ssh://example.com/widget.git", domain.KindGit, "ssh://example.com/widget.git"},
		{"path prefix wins over URL", "path:https://example.com/widget", domain.KindSearchPath, "https://example.com/widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, target := classify(tt.input)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}
