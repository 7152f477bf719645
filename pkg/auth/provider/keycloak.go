package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mcp-gateway-registry/core/pkg/auth"
	"github.com/mcp-gateway-registry/core/pkg/config"
	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
)

// KeycloakConfig configures a Keycloak-backed Adapter. ExternalURL is the
// base URL browsers use to reach Keycloak (for building redirect URLs);
// URL is the base URL this process uses to reach it directly, which may
// differ inside a container network. Tokens issued by Keycloak can carry
// any of three issuer forms depending on which hostname the client used,
// so validation accepts all three, matching the original adapter.
type KeycloakConfig struct {
	URL             string
	ExternalURL     string
	Realm           string
	ClientID        string
	ClientSecret    string
	M2MClientID     string
	M2MClientSecret string
	HTTPClient      *http.Client
}

type keycloakAdapter struct {
	cfg    KeycloakConfig
	jwks   *jwksCache
	client *http.Client
}

// NewKeycloakAdapter builds an Adapter backed by Keycloak.
func NewKeycloakAdapter(ctx context.Context, cfg KeycloakConfig) (*Adapter, error) {
	if cfg.URL == "" || cfg.Realm == "" {
		return nil, coreerrors.NewInvalidArgumentError("keycloak adapter requires url and realm", nil)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	jwksURL := realmURL(cfg.URL, cfg.Realm) + "/protocol/openid-connect/certs"
	cache, err := newJWKSCache(ctx, jwksURL, client)
	if err != nil {
		return nil, err
	}

	return &Adapter{name: "keycloak", impl: &keycloakAdapter{cfg: cfg, jwks: cache, client: client}}, nil
}

// NewKeycloakAdapterFromConfig builds an Adapter from process configuration.
func NewKeycloakAdapterFromConfig(ctx context.Context, c config.KeycloakConfig) (*Adapter, error) {
	return NewKeycloakAdapter(ctx, KeycloakConfig{
		URL:             c.URL,
		ExternalURL:     c.ExternalURL,
		Realm:           c.Realm,
		ClientID:        c.ClientID,
		ClientSecret:    c.ClientSecret,
		M2MClientID:     c.M2MClientID,
		M2MClientSecret: c.M2MClientSecret,
	})
}

func realmURL(base, realm string) string {
	return strings.TrimRight(base, "/") + "/realms/" + realm
}

// acceptedIssuers returns the three issuer forms a Keycloak-issued token
// may legitimately carry: the external (browser-facing) realm URL, the
// internal realm URL this process uses, and the conventional localhost
// development form, mirroring the original Python adapter's tolerance for
// whichever hostname the client happened to authenticate against.
func (k *keycloakAdapter) acceptedIssuers() []string {
	issuers := []string{realmURL(k.cfg.URL, k.cfg.Realm)}
	if k.cfg.ExternalURL != "" {
		issuers = append(issuers, realmURL(k.cfg.ExternalURL, k.cfg.Realm))
	}
	issuers = append(issuers, fmt.Sprintf("http://localhost:8080/realms/%s", k.cfg.Realm))
	return dedupStrings(issuers)
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (k *keycloakAdapter) ValidateToken(ctx context.Context, tokenString string) (*auth.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return k.jwks.lookupKey(ctx, t)
	})
	if err != nil {
		if coreErr, ok := asCoreError(err); ok {
			return nil, coreErr
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, coreerrors.NewAuthExpiredError("token has expired", err)
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, coreerrors.NewAuthInvalidSignatureError("keycloak token signature invalid", err)
		}
		return nil, coreerrors.NewAuthMalformedError("failed to parse keycloak token", err)
	}
	if !token.Valid {
		return nil, coreerrors.NewAuthInvalidSignatureError("keycloak token signature invalid", nil)
	}

	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return nil, coreerrors.NewAuthExpiredError("token has expired", nil)
	}

	iss, _ := claims.GetIssuer()
	issuerOK := false
	for _, accepted := range k.acceptedIssuers() {
		if iss == accepted {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return nil, coreerrors.NewAuthMalformedError("unexpected issuer", nil)
	}

	acceptedAudiences := []string{"account", k.cfg.ClientID, k.cfg.M2MClientID}
	if !audienceMatchesAny(claims, acceptedAudiences) {
		return nil, coreerrors.NewAuthMalformedError("unexpected audience", nil)
	}

	return &auth.Identity{
		Subject:  claimString(claims, "preferred_username", "sub"),
		Groups:   claimStringSlice(claims, "groups"),
		Method:   auth.MethodProvider,
		ClientID: claimString(claims, "azp", "aud"),
		Claims:   claims,
	}, nil
}

func (k *keycloakAdapter) tokenEndpoint() string {
	return realmURL(k.cfg.URL, k.cfg.Realm) + "/protocol/openid-connect/token"
}

func (k *keycloakAdapter) ExchangeCodeForToken(ctx context.Context, code, redirectURI, verifier string) (*ExchangedToken, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {k.cfg.ClientID},
		"client_secret": {k.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}
	return k.tokenRequest(ctx, form)
}

func (k *keycloakAdapter) RefreshToken(ctx context.Context, refreshToken string) (*ExchangedToken, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {k.cfg.ClientID},
		"client_secret": {k.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}
	return k.tokenRequest(ctx, form)
}

// GetM2MToken mints a machine-to-machine token via a client-credentials
// grant, using oauth2's clientcredentials.Config rather than the adapter's
// own form-POST helper since this grant needs no redirect URI or PKCE
// verifier.
func (k *keycloakAdapter) GetM2MToken(ctx context.Context, scope string) (*M2MToken, error) {
	clientID := k.cfg.M2MClientID
	clientSecret := k.cfg.M2MClientSecret
	if clientID == "" {
		clientID = k.cfg.ClientID
		clientSecret = k.cfg.ClientSecret
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     k.tokenEndpoint(),
	}
	if scope != "" {
		cc.Scopes = []string{scope}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.client)
	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, coreerrors.NewUpstreamProviderError("client credentials token request failed", err)
	}
	return &M2MToken{AccessToken: tok.AccessToken, ExpiresIn: int(time.Until(tok.Expiry).Seconds()), TokenType: tok.TokenType}, nil
}

func (k *keycloakAdapter) GetUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	return fetchUserInfo(ctx, k.client, realmURL(k.cfg.URL, k.cfg.Realm)+"/protocol/openid-connect/userinfo", accessToken)
}

func (k *keycloakAdapter) BuildAuthURL(state, redirectURI, challenge string) string {
	base := k.cfg.ExternalURL
	if base == "" {
		base = k.cfg.URL
	}
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {k.cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"scope":         {"openid email profile"},
	}
	if challenge != "" {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}
	return realmURL(base, k.cfg.Realm) + "/protocol/openid-connect/auth?" + q.Encode()
}

func (k *keycloakAdapter) BuildLogoutURL(redirectURI string) string {
	base := k.cfg.ExternalURL
	if base == "" {
		base = k.cfg.URL
	}
	q := url.Values{"client_id": {k.cfg.ClientID}, "post_logout_redirect_uri": {redirectURI}}
	return realmURL(base, k.cfg.Realm) + "/protocol/openid-connect/logout?" + q.Encode()
}

func (k *keycloakAdapter) tokenRequest(ctx context.Context, form url.Values) (*ExchangedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.tokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, coreerrors.NewInternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, coreerrors.NewUpstreamProviderError("token endpoint request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, coreerrors.NewUpstreamProviderError(fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, coreerrors.NewUpstreamProviderError("failed to decode token response", err)
	}

	return &ExchangedToken{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		IDToken:      body.IDToken,
		ExpiresIn:    body.ExpiresIn,
		TokenType:    body.TokenType,
	}, nil
}
