package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcp-gateway-registry/core/pkg/auth/provider"
	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	"github.com/mcp-gateway-registry/core/pkg/config"
	"github.com/mcp-gateway-registry/core/pkg/issuer"
	"github.com/mcp-gateway-registry/core/pkg/scopes"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

const testSecret = "test-secret-shared-across-all-gateway-components"

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                  testSecret,
		SessionCookieMaxAgeSeconds: 28800,
		MaxTokenLifetimeHours:      24,
	}
	secret := []byte(cfg.SecretKey)

	return &Dependencies{
		Config:     cfg,
		Scopes:     scopes.NewStore(),
		Sessions:   session.NewSigner(secret),
		SelfSigned: selfsigned.NewVerifier(secret),
		Issuer: issuer.New(issuer.Config{
			Secret:           secret,
			MaxTokensPerHour: 10,
			MaxLifetimeHours: 24,
		}),
	}
}

// loadScopeDoc writes doc to a temp file and loads it into deps.Scopes,
// switching Resolve from the permissive bootstrap case to a real policy.
func loadScopeDoc(t *testing.T, deps *Dependencies, yamlBody string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scopes.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	require.NoError(t, deps.Scopes.Load(path))
}

func mintSelfSigned(t *testing.T, deps *Dependencies, subject string, scopes []string) string {
	t.Helper()
	minter := selfsigned.NewMinter([]byte(deps.Config.SecretKey))
	token, _, _, err := minter.Mint(selfsigned.MintRequest{
		Subject:     subject,
		Scopes:      scopes,
		ClientID:    "test-client",
		LifetimeHrs: 1,
	})
	require.NoError(t, err)
	return token
}

func signSessionCookie(t *testing.T, deps *Dependencies, payload session.Payload) string {
	t.Helper()
	v, err := deps.Sessions.Sign(payload)
	require.NoError(t, err)
	return v
}

// newKeycloakTestAdapter builds a real *provider.Adapter backed by a
// keycloak configuration pointed at an httptest server, so oauth handler
// tests can exercise ExchangeCodeForToken/GetUserInfo without a live
// Keycloak instance. JWKS endpoints are never hit by these tests.
func newKeycloakTestAdapter(t *testing.T, baseURL string) *provider.Adapter {
	t.Helper()
	adapter, err := provider.NewKeycloakAdapter(context.Background(), provider.KeycloakConfig{
		URL:          baseURL,
		Realm:        "test",
		ClientID:     "gateway",
		ClientSecret: "gateway-secret",
	})
	require.NoError(t, err)
	return adapter
}
