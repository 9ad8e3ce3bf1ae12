package git

import (
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// tokenUsername is sent when a token is configured without a username.
// GitHub and GitLab accept any non-empty username alongside a token.
const tokenUsername = "x-access-token"

// authMethod returns the auth method for remoteURL, or nil to let go-git
// pick its default (anonymous HTTP, SSH agent).
func authMethod(remoteURL string, credentials domain.Credentials) transport.AuthMethod {
	if credentials.IsEmpty() {
		return nil
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return nil
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil
	}

	username := credentials.Username
	if username == "" {
		username = tokenUsername
	}
	return &http.BasicAuth{
		Username: username,
		Password: credentials.Token,
	}
}
