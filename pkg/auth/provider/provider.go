// Package provider wraps one external identity provider (Cognito or
// Keycloak) behind a single polymorphic Adapter interface, so the
// Authorization Engine and Token Refresher never branch on provider type.
package provider

import (
	"context"
	"fmt"

	"github.com/mcp-gateway-registry/core/pkg/auth"
	"github.com/mcp-gateway-registry/core/pkg/config"
)

// M2MToken is the result of a client-credentials grant.
type M2MToken struct {
	AccessToken string
	ExpiresIn   int
	TokenType   string
}

// ExchangedToken is the result of an authorization-code exchange or a
// refresh-token grant.
type ExchangedToken struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    int
	TokenType    string
}

// Adapter is the capability set every identity provider backend implements.
type Adapter struct {
	// Name identifies the backend for logging and Token Vault file naming.
	name string
	impl adapterImpl
}

// adapterImpl is the interface concrete backends satisfy; Adapter itself is
// the concrete type callers hold, matching the teacher's pattern of a thin
// struct wrapping provider-specific behavior rather than exposing bare
// interfaces everywhere.
//
//go:generate go run go.uber.org/mock/mockgen -source=provider.go -destination=mock_adapterimpl_test.go -package=provider adapterImpl
type adapterImpl interface {
	ValidateToken(ctx context.Context, token string) (*auth.Identity, error)
	ExchangeCodeForToken(ctx context.Context, code, redirectURI, verifier string) (*ExchangedToken, error)
	GetUserInfo(ctx context.Context, accessToken string) (map[string]any, error)
	BuildAuthURL(state, redirectURI, challenge string) string
	BuildLogoutURL(redirectURI string) string
	RefreshToken(ctx context.Context, refreshToken string) (*ExchangedToken, error)
	GetM2MToken(ctx context.Context, scope string) (*M2MToken, error)
}

// NewAdapterFromConfig builds the Adapter named by authProvider, the one
// dispatch point every daemon that needs a live identity provider (the
// gateway server and the token refresher alike) shares instead of each
// re-implementing the cognito/keycloak switch.
func NewAdapterFromConfig(ctx context.Context, authProvider config.AuthProvider, cognitoCfg config.CognitoConfig, keycloakCfg config.KeycloakConfig) (*Adapter, error) {
	switch authProvider {
	case config.ProviderKeycloak:
		return NewKeycloakAdapterFromConfig(ctx, keycloakCfg)
	case config.ProviderCognito:
		return NewCognitoAdapterFromConfig(ctx, cognitoCfg)
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", authProvider)
	}
}

// Name returns the provider name ("cognito" or "keycloak").
func (a *Adapter) Name() string { return a.name }

// ValidateToken verifies a provider-issued bearer token and returns the
// resulting Identity.
func (a *Adapter) ValidateToken(ctx context.Context, token string) (*auth.Identity, error) {
	return a.impl.ValidateToken(ctx, token)
}

// ExchangeCodeForToken exchanges an authorization code for tokens.
func (a *Adapter) ExchangeCodeForToken(ctx context.Context, code, redirectURI, verifier string) (*ExchangedToken, error) {
	return a.impl.ExchangeCodeForToken(ctx, code, redirectURI, verifier)
}

// GetUserInfo calls the provider's userinfo endpoint.
func (a *Adapter) GetUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	return a.impl.GetUserInfo(ctx, accessToken)
}

// BuildAuthURL builds the provider's authorization-code login URL.
func (a *Adapter) BuildAuthURL(state, redirectURI, challenge string) string {
	return a.impl.BuildAuthURL(state, redirectURI, challenge)
}

// BuildLogoutURL builds the provider's logout redirect URL.
func (a *Adapter) BuildLogoutURL(redirectURI string) string {
	return a.impl.BuildLogoutURL(redirectURI)
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*ExchangedToken, error) {
	return a.impl.RefreshToken(ctx, refreshToken)
}

// GetM2MToken performs a client-credentials grant.
func (a *Adapter) GetM2MToken(ctx context.Context, scope string) (*M2MToken, error) {
	return a.impl.GetM2MToken(ctx, scope)
}
