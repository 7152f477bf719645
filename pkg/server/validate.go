package server

import (
	"net/http"
	"strings"

	"github.com/mcp-gateway-registry/core/pkg/auth"
	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/logger"
	"github.com/mcp-gateway-registry/core/pkg/scopes"
	"github.com/mcp-gateway-registry/core/pkg/server/redact"
)

// handleValidate implements the Authorization Engine: it is a proxy
// sub-request, so every input comes from headers the proxy set, never
// from the request body.
func (s *handlers) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.resolveIdentity(ctx, r)
	if err != nil {
		s.logValidation(r, nil, err)
		writeError(w, err)
		return
	}

	method, toolName, err := parseEnvelope(r.Header.Get("X-Body"))
	if err != nil {
		err = coreerrors.NewInvalidArgumentError("malformed request envelope", err)
		s.logValidation(r, identity, err)
		writeError(w, err)
		return
	}

	serverName := serverNameFromURL(r.Header.Get("X-Original-URL"))
	effectiveScopes := s.deriveScopes(identity)

	decision := scopes.Resolve(s.deps.Scopes.Current(), effectiveScopes, serverName, method, toolName)
	if decision == scopes.Deny {
		err := coreerrors.NewAuthzDeniedError("no scope grants access to this server/tool", nil)
		s.logValidation(r, identity, err)
		writeError(w, err)
		return
	}

	w.Header().Set("X-User", identity.Subject)
	w.Header().Set("X-Username", identity.Subject)
	if identity.ClientID != "" {
		w.Header().Set("X-Client-Id", identity.ClientID)
	}
	w.Header().Set("X-Scopes", strings.Join(effectiveScopes, " "))
	w.Header().Set("X-Auth-Method", s.authMethodLabel(identity))
	w.Header().Set("X-Server-Name", serverName)
	// X-Tool-Name carries the JSON-RPC method, not the tools/call params.name
	// (that name only feeds the scope decision above): the original auth
	// server's response field of the same name is populated from the parsed
	// method, never from the nested tool argument.
	if method != "" {
		w.Header().Set("X-Tool-Name", method)
	}

	s.logValidation(r, identity, nil)
	writeJSON(w, http.StatusOK, map[string]any{"allowed": true})
}

// logValidation emits one log line per /validate call with every
// identifying value redacted per the engine's logging policy.
func (s *handlers) logValidation(r *http.Request, id *auth.Identity, err error) {
	args := []any{
		"ip", redact.AnonymizeIP(r.RemoteAddr),
		"path", serverNameFromURL(r.Header.Get("X-Original-URL")),
	}
	if id != nil {
		args = append(args, "user", redact.HashUsername(id.Subject), "method", s.authMethodLabel(id))
	}
	if err != nil {
		logger.Warn("validate rejected", append(args, "error", err.Error())...)
		return
	}
	logger.Info("validate allowed", args...)
}
