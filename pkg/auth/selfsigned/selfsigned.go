// Package selfsigned mints and verifies the core's own short-lived HS256
// access tokens, used when a caller presents an /internal/tokens-issued
// credential rather than an external identity provider's token.
package selfsigned

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
)

// Issuer is the fixed issuer claim stamped on every self-signed token.
const Issuer = "mcp-auth-server"

// Audience is the fixed audience claim checked on verification.
const Audience = "mcp-registry"

// TokenUse marks a token as an access token, distinguishing it from any
// future token class sharing the same issuer.
const TokenUse = "access"

// clockSkewLeeway tolerates minor clock drift between issuance and
// verification, matching the core's documented 30-second leeway.
const clockSkewLeeway = 30 * time.Second

// Claims is the full claim set of a self-signed access token.
type Claims struct {
	jwt.RegisteredClaims
	Scope    string `json:"scope"`
	TokenUse string `json:"token_use"`
	ClientID string `json:"client_id"`
}

// Minter produces self-signed access tokens over a caller-supplied secret.
// The secret is never read from a package-level variable; every call is
// explicit about which key it signs with so a secret rotation cannot
// silently apply to tokens minted before the rotation.
type Minter struct {
	secret []byte
}

// NewMinter constructs a Minter bound to secret.
func NewMinter(secret []byte) *Minter {
	return &Minter{secret: secret}
}

// MintRequest describes a token to mint.
type MintRequest struct {
	Subject     string
	Scopes      []string
	ClientID    string
	LifetimeHrs int
}

// Mint signs a new access token for req, returning the compact JWT and its
// jti.
func (m *Minter) Mint(req MintRequest) (token string, jti string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	jti = uuid.NewString()
	expiresAt = now.Add(time.Duration(req.LifetimeHrs) * time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   req.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Scope:    strings.Join(req.Scopes, " "),
		TokenUse: TokenUse,
		ClientID: req.ClientID,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, signErr := t.SignedString(m.secret)
	if signErr != nil {
		return "", "", time.Time{}, coreerrors.NewInternalError("failed to sign self-signed token", signErr)
	}
	return signed, jti, expiresAt, nil
}

// Verifier checks self-signed tokens minted by a Minter sharing the same
// secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier bound to secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify parses and validates tokenString, returning its claims on success.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithLeeway(clockSkewLeeway), jwt.WithIssuer(Issuer), jwt.WithAudience(Audience))

	if err != nil {
		if strings.Contains(err.Error(), "token is expired") {
			return nil, coreerrors.NewAuthExpiredError("token has expired", err)
		}
		return nil, coreerrors.NewAuthMalformedError("failed to parse self-signed token", err)
	}
	if !token.Valid {
		return nil, coreerrors.NewAuthInvalidSignatureError("self-signed token signature invalid", nil)
	}
	if claims.TokenUse != TokenUse {
		return nil, coreerrors.NewAuthMalformedError(fmt.Sprintf("unexpected token_use: %s", claims.TokenUse), nil)
	}
	return claims, nil
}

// LooksSelfSigned reports whether an unverified JWT's issuer claim matches
// this package's Issuer, without checking the signature. Callers use this
// to dispatch between self-signed verification and provider verification
// before they know which secret or JWKS to use.
func LooksSelfSigned(tokenString string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return false
	}
	iss, _ := claims.GetIssuer()
	return iss == Issuer
}

// Scopes splits the space-separated scope claim into a slice.
func (c *Claims) Scopes() []string {
	if c.Scope == "" {
		return nil
	}
	return strings.Split(c.Scope, " ")
}
