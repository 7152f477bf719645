package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

func TestHandleValidate_MissingCredential_Returns401(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := NewServer(deps)

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestHandleValidate_SelfSignedToken_PermissiveWhenNoPolicyLoaded(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := NewServer(deps)
	token := mintSelfSigned(t, deps, "alice", []string{"mcp-servers-unrestricted/read"})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("X-Original-URL", "https://gw/weather/mcp")
	req.Header.Set("X-Body", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_forecast"}}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Header().Get("X-User"))
	assert.Equal(t, "self_signed", rec.Header().Get("X-Auth-Method"))
	assert.Equal(t, "weather", rec.Header().Get("X-Server-Name"))
	assert.Equal(t, "tools/call", rec.Header().Get("X-Tool-Name"))
	assert.Equal(t, "mcp-servers-unrestricted/read", rec.Header().Get("X-Scopes"))
}

// TestHandleValidate_XToolNameCarriesMethodNotToolArgument pins down the
// header's contents against the self-contradictory framing in scope
// decisions: it carries the JSON-RPC method ("tools/call"), never the tool
// argument nested in params.name, even though that argument still drives
// which tools/call invocations the scope decision below allows.
func TestHandleValidate_XToolNameCarriesMethodNotToolArgument(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := NewServer(deps)
	token := mintSelfSigned(t, deps, "alice", []string{"mcp-servers-unrestricted/read"})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("X-Original-URL", "https://gw/weather/mcp")
	req.Header.Set("X-Body", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_stock_aggregates"}}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tools/call", rec.Header().Get("X-Tool-Name"))
	assert.NotEqual(t, "get_stock_aggregates", rec.Header().Get("X-Tool-Name"))
}

func TestHandleValidate_ExpiredSelfSignedToken_Returns401(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := NewServer(deps)

	minter := selfsigned.NewMinter([]byte(deps.Config.SecretKey))
	token, _, _, err := minter.Mint(selfsigned.MintRequest{
		Subject:     "bob",
		Scopes:      []string{"scope-a"},
		ClientID:    "test-client",
		LifetimeHrs: -1,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleValidate_ScopeDocLoaded_DeniesUnlistedServer(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	loadScopeDoc(t, deps, `
group_mappings:
  admins: ["mcp-servers-unrestricted/read"]
scopes:
  mcp-servers-unrestricted/read:
    - server: weather
      methods: ["initialize", "tools/list"]
      tools: ["get_forecast"]
`)
	r := NewServer(deps)
	token := mintSelfSigned(t, deps, "alice", []string{"mcp-servers-unrestricted/read"})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("X-Original-URL", "https://gw/maps/mcp")
	req.Header.Set("X-Body", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"geocode"}}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleValidate_ScopeDocLoaded_AllowsListedTool(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	loadScopeDoc(t, deps, `
scopes:
  mcp-servers-unrestricted/read:
    - server: weather
      methods: ["initialize", "tools/list"]
      tools: ["get_forecast"]
`)
	r := NewServer(deps)
	token := mintSelfSigned(t, deps, "alice", []string{"mcp-servers-unrestricted/read"})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("X-Original-URL", "https://gw/weather/mcp")
	req.Header.Set("X-Body", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_forecast"}}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleValidate_SessionCookie_UsesGroupMapping(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	loadScopeDoc(t, deps, `
group_mappings:
  engineering: ["mcp-servers-unrestricted/read"]
scopes:
  mcp-servers-unrestricted/read:
    - server: weather
      methods: ["tools/list"]
      tools: []
`)
	r := NewServer(deps)
	cookie := signSessionCookie(t, deps, session.Payload{
		Username:     "carol",
		Groups:       []string{"engineering"},
		ProviderType: "keycloak",
		IsOAuth:      true,
		SessionID:    "sess-1",
	})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("Cookie", sessionCookieName+"="+cookie)
	req.Header.Set("X-Original-URL", "https://gw/weather/mcp")
	req.Header.Set("X-Body", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session_cookie", rec.Header().Get("X-Auth-Method"))
	assert.Equal(t, "carol", rec.Header().Get("X-User"))
}

func TestHandleValidate_MalformedEnvelope_Returns400(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := NewServer(deps)
	token := mintSelfSigned(t, deps, "alice", []string{"scope-a"})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("X-Body", `not json`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
