package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// hashSuffixLength is the number of hex characters of the URL hash kept by LayoutHashed.
const hashSuffixLength = 12

// supportedSchemes lists the URL schemes recognized as git remotes.
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ssh":   true,
	"git":   true,
	"file":  true,
}

// parseRemoteURL parses name as an absolute remote URL.
// It reports false for anything that is not a well-formed URL with a
// supported scheme and a host or path.
func parseRemoteURL(name string) (*url.URL, bool) {
	u, err := url.Parse(name)
	if err != nil {
		return nil, false
	}
	if !supportedSchemes[strings.ToLower(u.Scheme)] {
		return nil, false
	}
	if u.Host == "" && u.Path == "" {
		return nil, false
	}
	return u, true
}

// repositoryName returns the URL path basename with its extension removed.
func repositoryName(u *url.URL) (string, error) {
	base := path.Base(u.Path)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidRemoteURL, u.Redacted())
	}
	return name, nil
}

// WorkingCopyPath derives the working-copy directory for rawURL under root.
// The result depends only on rawURL, root and layout.
func WorkingCopyPath(root, rawURL string, layout domain.Layout) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidRemoteURL, err)
	}

	name, err := repositoryName(u)
	if err != nil {
		return "", err
	}

	switch layout {
	case domain.LayoutHashed:
		sum := sha256.Sum256([]byte(rawURL))
		name = name + "-" + hex.EncodeToString(sum[:])[:hashSuffixLength]
	case domain.LayoutBasename, "":
	default:
		return "", fmt.Errorf("unknown working copy layout %q", layout)
	}

	return filepath.Join(root, name), nil
}

// sameRemote reports whether two remote URLs refer to the same repository.
// Trailing slashes are ignored.
func sameRemote(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
