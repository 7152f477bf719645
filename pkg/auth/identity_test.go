package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_MarshalJSON_OmitsClaims(t *testing.T) {
	t.Parallel()

	id := Identity{
		Subject:  "alice",
		Groups:   []string{"engineers"},
		Scopes:   []string{"mcp-servers-unrestricted/read"},
		Method:   MethodProvider,
		ClientID: "client-123",
		Claims:   map[string]any{"sub": "alice", "secret": "do-not-leak"},
	}

	b, err := json.Marshal(id)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "do-not-leak")
	assert.Contains(t, string(b), "alice")
	assert.Contains(t, string(b), "client-123")
}

func TestIdentity_String(t *testing.T) {
	t.Parallel()

	id := Identity{Subject: "bob", Method: MethodSession}
	s := id.String()
	assert.Contains(t, s, "bob")
	assert.Contains(t, s, "session")
}

func TestWithIdentityAndFromContext(t *testing.T) {
	t.Parallel()

	id := &Identity{Subject: "carol"}
	ctx := WithIdentity(context.Background(), id)

	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, id, got)
}

func TestIdentityFromContext_Absent(t *testing.T) {
	t.Parallel()

	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
}
