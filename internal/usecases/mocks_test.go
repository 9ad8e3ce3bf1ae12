package usecases

import (
	"context"
	"os"
	"path/filepath"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct {
	infoMsgs []string
	infoArgs []map[string]interface{}
	warnMsgs []string
}

func (m *mockLogger) Info(_ context.Context, msg string, fields map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
	m.infoArgs = append(m.infoArgs, fields)
}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (m *mockLogger) Warn(_ context.Context, msg string, _ map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// mockGitClient implements domain.GitClient against the local filesystem.
// Clone creates the target directory with a .git marker; IsRepository checks for it.
type mockGitClient struct {
	cloneErr  error
	fetchErr  error
	remoteURL string
	remoteErr error

	cloneCalls []string
	fetchCalls []string
	calls      []string
}

func (m *mockGitClient) IsRepository(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

func (m *mockGitClient) Clone(_ context.Context, url, path string) error {
	m.cloneCalls = append(m.cloneCalls, url)
	m.calls = append(m.calls, domain.OpClone)
	if m.cloneErr != nil {
		return m.cloneErr
	}
	if m.remoteURL == "" {
		m.remoteURL = url
	}
	return os.MkdirAll(filepath.Join(path, ".git"), 0o755)
}

func (m *mockGitClient) Fetch(_ context.Context, path string) error {
	m.fetchCalls = append(m.fetchCalls, path)
	m.calls = append(m.calls, domain.OpFetch)
	return m.fetchErr
}

func (m *mockGitClient) RemoteURL(_ string) (string, error) {
	return m.remoteURL, m.remoteErr
}

// mockManager implements domain.WorkingCopyManager for testing.
type mockManager struct {
	result *domain.Resolution
	err    error
	calls  []string
}

func (m *mockManager) Locate(_ context.Context, rawURL string) (*domain.Resolution, error) {
	m.calls = append(m.calls, rawURL)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
