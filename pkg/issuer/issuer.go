// Package issuer implements the Token Issuer: mints short-lived
// self-signed access tokens on behalf of already-authenticated callers,
// subject to a scope-subset check and a per-username rate limit.
package issuer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/issuer/ratelimit"
)

// UserContext describes the caller requesting a new token, as resolved by
// the Authorization Engine from the caller's own credential.
type UserContext struct {
	Username string
	Scopes   []string
}

// IssueRequest is the body of a token-issuance request.
type IssueRequest struct {
	UserContext     UserContext
	RequestedScopes []string
	ExpiresInHours  int
	Description     string
}

// IssueResponse is returned on a successful mint.
type IssueResponse struct {
	AccessToken string
	ExpiresIn   int
	Scope       string
	IssuedAt    time.Time
	Description string
}

// Issuer mints tokens per IssueRequest, enforcing the Token Issuer's
// policy: rate limiting, lifetime bounds, and scope-subset validation.
type Issuer struct {
	minter      *selfsigned.Minter
	limiter     *ratelimit.Limiter
	maxLifetime int
}

// Config configures an Issuer.
type Config struct {
	Secret           []byte
	MaxTokensPerHour int
	MaxLifetimeHours int
}

// New constructs an Issuer.
func New(cfg Config) *Issuer {
	return &Issuer{
		minter:      selfsigned.NewMinter(cfg.Secret),
		limiter:     ratelimit.NewLimiter(cfg.MaxTokensPerHour),
		maxLifetime: cfg.MaxLifetimeHours,
	}
}

// Mint validates and, if authorized, issues a new self-signed token.
func (i *Issuer) Mint(_ context.Context, req IssueRequest) (*IssueResponse, error) {
	if !i.limiter.Allow(req.UserContext.Username) {
		return nil, coreerrors.NewRateLimitedError(fmt.Sprintf("rate limit exceeded for user %s", req.UserContext.Username), nil)
	}

	if req.ExpiresInHours <= 0 || req.ExpiresInHours > i.maxLifetime {
		return nil, coreerrors.NewInvalidArgumentError(
			fmt.Sprintf("expires_in_hours must be between 1 and %d", i.maxLifetime), nil)
	}

	requested := req.RequestedScopes
	if len(requested) == 0 {
		requested = req.UserContext.Scopes
	}

	offending := subtractScopes(requested, req.UserContext.Scopes)
	if len(offending) > 0 {
		return nil, coreerrors.NewAuthzDeniedError(
			fmt.Sprintf("requested scopes exceed caller's own scopes: %v", offending), nil)
	}

	token, _, expiresAt, err := i.minter.Mint(selfsigned.MintRequest{
		Subject:     req.UserContext.Username,
		Scopes:      requested,
		ClientID:    generateClientID(),
		LifetimeHrs: req.ExpiresInHours,
	})
	if err != nil {
		return nil, err
	}

	return &IssueResponse{
		AccessToken: token,
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		Scope:       joinScopes(requested),
		IssuedAt:    time.Now().UTC(),
		Description: req.Description,
	}, nil
}

// subtractScopes returns the members of requested not present in allowed.
func subtractScopes(requested, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}
	var offending []string
	for _, s := range requested {
		if _, ok := allowedSet[s]; !ok {
			offending = append(offending, s)
		}
	}
	sort.Strings(offending)
	return offending
}

// generateClientID produces a user-generated client identifier for a
// newly minted token, per spec.md's "client_id = user-generated" claim.
func generateClientID() string {
	return "cli-" + uuid.NewString()
}

func joinScopes(scopes []string) string {
	out := ""
	for i, s := range scopes {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
