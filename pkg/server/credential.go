package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/auth"
	"github.com/mcp-gateway-registry/core/pkg/auth/groupmap"
	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

const sessionCookieName = "mcp_gateway_session"

// resolveIdentity implements the Authorization Engine's credential
// selection step: a valid session cookie wins outright; otherwise the
// caller must present a bearer token, dispatched to self-signed or
// provider verification by its unverified issuer claim.
func (s *handlers) resolveIdentity(ctx context.Context, r *http.Request) (*auth.Identity, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		var payload session.Payload
		maxAge := time.Duration(s.deps.Config.SessionCookieMaxAgeSeconds) * time.Second
		if err := s.deps.Sessions.Verify(cookie.Value, maxAge, &payload); err != nil {
			return nil, err
		}
		return &auth.Identity{
			Subject: payload.Username,
			Groups:  payload.Groups,
			Method:  auth.MethodSession,
			Claims:  map[string]any{"provider_type": payload.ProviderType},
		}, nil
	}

	tokenString := bearerToken(r.Header.Get("X-Authorization"))
	if tokenString == "" {
		return nil, coreerrors.NewAuthMissingError("no session cookie or bearer token presented", nil)
	}

	if selfsigned.LooksSelfSigned(tokenString) {
		claims, err := s.deps.SelfSigned.Verify(tokenString)
		if err != nil {
			return nil, err
		}
		return &auth.Identity{
			Subject:  claims.Subject,
			Scopes:   claims.Scopes(),
			Method:   auth.MethodSelfSigned,
			ClientID: claims.ClientID,
		}, nil
	}

	if s.deps.Provider == nil {
		return nil, coreerrors.NewAuthMalformedError("no identity provider configured for provider-issued tokens", nil)
	}
	return s.deps.Provider.ValidateToken(ctx, tokenString)
}

// bearerToken extracts the token from a "Bearer <token>" header value,
// returning "" if the header is absent or malformed.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// authMethodLabel renders the principal's authentication method in the
// exact vocabulary X-Auth-Method must carry.
func (s *handlers) authMethodLabel(id *auth.Identity) string {
	switch id.Method {
	case auth.MethodSelfSigned:
		return "self_signed"
	case auth.MethodSession:
		return "session_cookie"
	case auth.MethodProvider:
		if s.deps.Provider != nil {
			return s.deps.Provider.Name()
		}
	}
	return string(id.Method)
}

// providerTypeFor returns the identity-provider flavor backing id, used to
// decide whether group-to-scope mapping applies. Session principals carry
// the provider type they logged in through; self-signed tokens have none.
func (s *handlers) providerTypeFor(id *auth.Identity) string {
	switch id.Method {
	case auth.MethodProvider:
		if s.deps.Provider != nil {
			return s.deps.Provider.Name()
		}
	case auth.MethodSession:
		if pt, ok := id.Claims["provider_type"].(string); ok {
			return pt
		}
	}
	return ""
}

// deriveScopes implements the Authorization Engine's scope derivation
// step: Keycloak principals are always mapped through group_mappings;
// every other principal uses its own token scopes when present, falling
// back to the mapping table otherwise.
func (s *handlers) deriveScopes(id *auth.Identity) []string {
	if s.providerTypeFor(id) == "keycloak" {
		return groupmap.MapGroupsToScopes(id.Groups, s.groupMappings())
	}
	if len(id.Scopes) > 0 {
		return id.Scopes
	}
	return groupmap.MapGroupsToScopes(id.Groups, s.groupMappings())
}

func (s *handlers) groupMappings() map[string][]string {
	doc := s.deps.Scopes.Current()
	if doc == nil {
		return nil
	}
	return doc.GroupMappings
}
