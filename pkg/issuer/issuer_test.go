package issuer

import (
	"context"
	"testing"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return New(Config{Secret: []byte("secret"), MaxTokensPerHour: 10, MaxLifetimeHours: 24})
}

func TestMint_Success(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()
	resp, err := i.Mint(context.Background(), IssueRequest{
		UserContext:    UserContext{Username: "alice", Scopes: []string{"read", "execute"}},
		ExpiresInHours: 8,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "read execute", resp.Scope)
}

func TestMint_DefaultsToCallerScopesWhenUnspecified(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()
	resp, err := i.Mint(context.Background(), IssueRequest{
		UserContext:    UserContext{Username: "alice", Scopes: []string{"read"}},
		ExpiresInHours: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "read", resp.Scope)
}

func TestMint_RejectsScopesOutsideCallerScopes(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()
	_, err := i.Mint(context.Background(), IssueRequest{
		UserContext:     UserContext{Username: "alice", Scopes: []string{"read"}},
		RequestedScopes: []string{"read", "admin"},
		ExpiresInHours:  1,
	})
	require.Error(t, err)
	var coreErr *coreerrors.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.ErrAuthzDenied, coreErr.Type)
	assert.Contains(t, err.Error(), "admin")
}

func TestMint_RejectsOutOfBoundsLifetime(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()

	_, err := i.Mint(context.Background(), IssueRequest{UserContext: UserContext{Username: "alice"}, ExpiresInHours: 0})
	require.Error(t, err)

	_, err = i.Mint(context.Background(), IssueRequest{UserContext: UserContext{Username: "alice"}, ExpiresInHours: 25})
	require.Error(t, err)
}

func TestMint_EnforcesRateLimit(t *testing.T) {
	t.Parallel()

	i := New(Config{Secret: []byte("secret"), MaxTokensPerHour: 1, MaxLifetimeHours: 24})
	_, err := i.Mint(context.Background(), IssueRequest{UserContext: UserContext{Username: "alice", Scopes: []string{"read"}}, ExpiresInHours: 1})
	require.NoError(t, err)

	_, err = i.Mint(context.Background(), IssueRequest{UserContext: UserContext{Username: "alice", Scopes: []string{"read"}}, ExpiresInHours: 1})
	require.Error(t, err)
	var coreErr *coreerrors.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.ErrRateLimited, coreErr.Type)
}
