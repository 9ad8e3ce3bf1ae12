package git

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// networkMessages are fragments of transport errors that go-git reports as plain strings.
var networkMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"network is unreachable",
	"unexpected EOF",
}

// classifyError maps a go-git error to a domain failure kind.
func classifyError(err error) domain.FailureKind {
	switch {
	case err == nil:
		return domain.FailureNone
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return domain.FailureAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return domain.FailureRemoteNotFound
	case errors.Is(err, git.ErrRepositoryNotExists),
		errors.Is(err, git.ErrRemoteNotFound),
		errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return domain.FailureCorrupt
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.FailureNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.FailureNetwork
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return domain.FailureIO
	}

	msg := err.Error()
	for _, fragment := range networkMessages {
		if strings.Contains(msg, fragment) {
			return domain.FailureNetwork
		}
	}
	return domain.FailureUnknown
}
