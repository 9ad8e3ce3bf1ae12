package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewRepositoryError(OpFetch, "https://example.com/org/widget.git", "/cache/widget", FailureNetwork, cause)

	assert.Equal(t,
		"fetch https://example.com/org/widget.git into /cache/widget failed (network): connection reset",
		err.Error())
	assert.ErrorIs(t, err, ErrRepositoryOperation)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())
}

func TestRepositoryError_WrappedMatches(t *testing.T) {
	err := fmt.Errorf("resolve widget: %w",
		NewRepositoryError(OpClone, "u", "p", FailureAuth, errors.New("denied")))

	var repoErr *RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, FailureAuth, repoErr.Kind)
	assert.False(t, repoErr.Retryable())
	assert.ErrorIs(t, err, ErrRepositoryOperation)
}

func TestFailureKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureNone},
		{"plain error", errors.New("boom"), FailureUnknown},
		{"repository error", NewRepositoryError(OpClone, "u", "p", FailureIO, errors.New("disk")), FailureIO},
		{"wrapped repository error", fmt.Errorf("x: %w", NewRepositoryError(OpFetch, "u", "p", FailureCorrupt, nil)), FailureCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureKindOf(tt.err))
		})
	}
}

func TestCredentials_IsEmpty(t *testing.T) {
	assert.True(t, Credentials{}.IsEmpty())
	assert.False(t, Credentials{Token: "t"}.IsEmpty())
	assert.False(t, Credentials{Username: "u"}.IsEmpty())
}
