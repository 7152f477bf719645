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

// CognitoConfig configures a Cognito-backed Adapter.
type CognitoConfig struct {
	UserPoolID   string
	ClientID     string
	ClientSecret string
	Region       string
	HTTPClient   *http.Client
}

type cognitoAdapter struct {
	cfg    CognitoConfig
	jwks   *jwksCache
	client *http.Client
}

// NewCognitoAdapter builds an Adapter backed by Amazon Cognito.
func NewCognitoAdapter(ctx context.Context, cfg CognitoConfig) (*Adapter, error) {
	if cfg.UserPoolID == "" || cfg.Region == "" {
		return nil, coreerrors.NewInvalidArgumentError("cognito adapter requires user_pool_id and region", nil)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	issuer := cognitoIssuer(cfg.Region, cfg.UserPoolID)
	jwksURL := issuer + "/.well-known/jwks.json"
	cache, err := newJWKSCache(ctx, jwksURL, client)
	if err != nil {
		return nil, err
	}

	return &Adapter{name: "cognito", impl: &cognitoAdapter{cfg: cfg, jwks: cache, client: client}}, nil
}

// NewCognitoAdapterFromConfig builds an Adapter from process configuration.
func NewCognitoAdapterFromConfig(ctx context.Context, c config.CognitoConfig) (*Adapter, error) {
	return NewCognitoAdapter(ctx, CognitoConfig{
		UserPoolID:   c.UserPoolID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Region:       c.Region,
	})
}

func cognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

func (c *cognitoAdapter) ValidateToken(ctx context.Context, tokenString string) (*auth.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.jwks.lookupKey(ctx, t)
	})
	if err != nil {
		if coreErr, ok := asCoreError(err); ok {
			return nil, coreErr
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, coreerrors.NewAuthExpiredError("token has expired", err)
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, coreerrors.NewAuthInvalidSignatureError("cognito token signature invalid", err)
		}
		return nil, coreerrors.NewAuthMalformedError("failed to parse cognito token", err)
	}
	if !token.Valid {
		return nil, coreerrors.NewAuthInvalidSignatureError("cognito token signature invalid", nil)
	}

	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return nil, coreerrors.NewAuthExpiredError("token has expired", nil)
	}

	issuer := cognitoIssuer(c.cfg.Region, c.cfg.UserPoolID)
	if iss, _ := claims.GetIssuer(); iss != issuer {
		return nil, coreerrors.NewAuthMalformedError("unexpected issuer", nil)
	}

	if !audienceMatches(claims, c.cfg.ClientID) {
		return nil, coreerrors.NewAuthMalformedError("unexpected audience", nil)
	}

	return &auth.Identity{
		Subject:  claimString(claims, "preferred_username", "username", "sub"),
		Groups:   claimStringSlice(claims, "cognito:groups", "groups"),
		Method:   auth.MethodProvider,
		ClientID: claimString(claims, "azp", "client_id"),
		Claims:   claims,
	}, nil
}

func (c *cognitoAdapter) ExchangeCodeForToken(ctx context.Context, code, redirectURI, verifier string) (*ExchangedToken, error) {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.cfg.ClientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}
	return c.tokenRequest(ctx, domain+"/oauth2/token", form)
}

func (c *cognitoAdapter) RefreshToken(ctx context.Context, refreshToken string) (*ExchangedToken, error) {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.cfg.ClientID},
		"refresh_token": {refreshToken},
	}
	return c.tokenRequest(ctx, domain+"/oauth2/token", form)
}

// GetM2MToken mints a machine-to-machine token via a client-credentials
// grant. Unlike the authorization-code and refresh flows, this grant needs
// no PKCE or redirect-URI assembly, so it is handed to oauth2's generic
// clientcredentials.Config rather than the adapter's own form-POST helper.
func (c *cognitoAdapter) GetM2MToken(ctx context.Context, scope string) (*M2MToken, error) {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     domain + "/oauth2/token",
	}
	if scope != "" {
		cc.Scopes = []string{scope}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, coreerrors.NewUpstreamProviderError("client credentials token request failed", err)
	}
	return &M2MToken{AccessToken: tok.AccessToken, ExpiresIn: int(time.Until(tok.Expiry).Seconds()), TokenType: tok.TokenType}, nil
}

func (c *cognitoAdapter) GetUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	return fetchUserInfo(ctx, c.client, domain+"/oauth2/userInfo", accessToken)
}

func (c *cognitoAdapter) BuildAuthURL(state, redirectURI, challenge string) string {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"scope":         {"openid email profile"},
	}
	if challenge != "" {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}
	return domain + "/oauth2/authorize?" + q.Encode()
}

func (c *cognitoAdapter) BuildLogoutURL(redirectURI string) string {
	domain := fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", c.cfg.UserPoolID, c.cfg.Region)
	q := url.Values{"client_id": {c.cfg.ClientID}, "logout_uri": {redirectURI}}
	return domain + "/logout?" + q.Encode()
}

func (c *cognitoAdapter) tokenRequest(ctx context.Context, endpoint string, form url.Values) (*ExchangedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, coreerrors.NewInternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
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
