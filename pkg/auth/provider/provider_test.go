package provider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mcp-gateway-registry/core/pkg/auth"
)

const testKeyID = "test-key-1"

func newTestJWKSServer(t *testing.T) (*httptest.Server, *rsa.PrivateKey) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.Import(&privateKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, testKeyID))
	require.NoError(t, key.Set(jwk.AlgorithmKey, "RS256"))

	keySet := jwk.NewSet()
	require.NoError(t, keySet.AddKey(key))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(keySet))
	}))
	t.Cleanup(server.Close)

	return server, privateKey
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestCognitoAdapter_ValidateToken_Success(t *testing.T) {
	t.Parallel()

	server, key := newTestJWKSServer(t)
	ctx := context.Background()

	adapter, err := NewCognitoAdapter(ctx, CognitoConfig{
		UserPoolID: "pool-1",
		ClientID:   "client-1",
		Region:     "us-east-1",
	})
	require.NoError(t, err)
	adapter.impl.(*cognitoAdapter).jwks.url = server.URL

	claims := jwt.MapClaims{
		"iss":              cognitoIssuer("us-east-1", "pool-1"),
		"aud":               "client-1",
		"sub":              "user-1",
		"preferred_username": "alice",
		"cognito:groups":   []any{"engineers"},
		"exp":              time.Now().Add(time.Hour).Unix(),
		"iat":              time.Now().Unix(),
	}
	token := signRS256(t, key, claims)

	id, err := adapter.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", id.Subject)
	require.Contains(t, id.Groups, "engineers")
}

func TestCognitoAdapter_ValidateToken_WrongAudience(t *testing.T) {
	t.Parallel()

	server, key := newTestJWKSServer(t)
	ctx := context.Background()

	adapter, err := NewCognitoAdapter(ctx, CognitoConfig{UserPoolID: "pool-1", ClientID: "client-1", Region: "us-east-1"})
	require.NoError(t, err)
	adapter.impl.(*cognitoAdapter).jwks.url = server.URL

	claims := jwt.MapClaims{
		"iss": cognitoIssuer("us-east-1", "pool-1"),
		"aud": "someone-else",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := signRS256(t, key, claims)

	_, err = adapter.ValidateToken(ctx, token)
	require.Error(t, err)
}

func TestKeycloakAdapter_ValidateToken_AcceptsAnyIssuerForm(t *testing.T) {
	t.Parallel()

	server, key := newTestJWKSServer(t)
	ctx := context.Background()

	adapter, err := NewKeycloakAdapter(ctx, KeycloakConfig{
		URL:         "http://keycloak-internal:8080",
		ExternalURL: "https://keycloak.example.com",
		Realm:       "demo",
		ClientID:    "client-1",
	})
	require.NoError(t, err)
	adapter.impl.(*keycloakAdapter).jwks.url = server.URL

	claims := jwt.MapClaims{
		"iss":                realmURL("https://keycloak.example.com", "demo"),
		"aud":                "account",
		"sub":                "user-1",
		"preferred_username": "bob",
		"groups":             []any{"admins"},
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
	token := signRS256(t, key, claims)

	id, err := adapter.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "bob", id.Subject)
}

func TestKeycloakAdapter_ValidateToken_RejectsUnknownIssuer(t *testing.T) {
	t.Parallel()

	server, key := newTestJWKSServer(t)
	ctx := context.Background()

	adapter, err := NewKeycloakAdapter(ctx, KeycloakConfig{URL: "http://keycloak-internal:8080", Realm: "demo", ClientID: "client-1"})
	require.NoError(t, err)
	adapter.impl.(*keycloakAdapter).jwks.url = server.URL

	claims := jwt.MapClaims{
		"iss": "https://not-my-keycloak.example.com/realms/demo",
		"aud": "account",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := signRS256(t, key, claims)

	_, err = adapter.ValidateToken(ctx, token)
	require.Error(t, err)
}

func TestKeycloakAdapter_AcceptedIssuers_Dedup(t *testing.T) {
	t.Parallel()

	k := &keycloakAdapter{cfg: KeycloakConfig{URL: "http://localhost:8080", Realm: "demo"}}
	issuers := k.acceptedIssuers()
	seen := map[string]int{}
	for _, iss := range issuers {
		seen[iss]++
	}
	for iss, count := range seen {
		require.Equal(t, 1, count, "issuer %s listed more than once", iss)
	}
}

func TestCognitoAdapter_BuildAuthURL(t *testing.T) {
	t.Parallel()

	adapter, err := NewCognitoAdapter(context.Background(), CognitoConfig{UserPoolID: "pool-1", ClientID: "client-1", Region: "us-east-1"})
	require.NoError(t, err)

	url := adapter.BuildAuthURL("state-123", "https://app.example.com/callback", "challenge-abc")
	require.Contains(t, url, "state=state-123")
	require.Contains(t, url, "code_challenge=challenge-abc")
}

// newMockAdapter wraps a generated MockadapterImpl in an Adapter, letting
// these tests pin down Adapter's delegation behavior independent of any
// real backend's HTTP or JWKS machinery.
func newMockAdapter(impl *MockadapterImpl) *Adapter {
	return &Adapter{name: "mock", impl: impl}
}

func TestAdapter_DelegatesValidateToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockadapterImpl(ctrl)
	adapter := newMockAdapter(mock)

	want := &auth.Identity{Subject: "alice"}
	mock.EXPECT().ValidateToken(gomock.Any(), "tok-1").Return(want, nil)

	got, err := adapter.ValidateToken(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestAdapter_DelegatesValidateToken_PropagatesError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockadapterImpl(ctrl)
	adapter := newMockAdapter(mock)

	wantErr := errors.New("boom")
	mock.EXPECT().ValidateToken(gomock.Any(), "tok-1").Return(nil, wantErr)

	_, err := adapter.ValidateToken(context.Background(), "tok-1")
	require.ErrorIs(t, err, wantErr)
}

func TestAdapter_DelegatesExchangeCodeForToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockadapterImpl(ctrl)
	adapter := newMockAdapter(mock)

	want := &ExchangedToken{AccessToken: "access-1"}
	mock.EXPECT().ExchangeCodeForToken(gomock.Any(), "code-1", "https://app/callback", "verifier-1").Return(want, nil)

	got, err := adapter.ExchangeCodeForToken(context.Background(), "code-1", "https://app/callback", "verifier-1")
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestAdapter_DelegatesGetM2MToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockadapterImpl(ctrl)
	adapter := newMockAdapter(mock)

	want := &M2MToken{AccessToken: "m2m-1", ExpiresIn: 300}
	mock.EXPECT().GetM2MToken(gomock.Any(), "scope-1").Return(want, nil)

	got, err := adapter.GetM2MToken(context.Background(), "scope-1")
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestAdapter_DelegatesBuildAuthURLAndLogoutURL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockadapterImpl(ctrl)
	adapter := newMockAdapter(mock)

	mock.EXPECT().BuildAuthURL("state", "redirect", "challenge").Return("https://idp/authorize")
	mock.EXPECT().BuildLogoutURL("redirect").Return("https://idp/logout")

	require.Equal(t, "https://idp/authorize", adapter.BuildAuthURL("state", "redirect", "challenge"))
	require.Equal(t, "https://idp/logout", adapter.BuildLogoutURL("redirect"))
}
