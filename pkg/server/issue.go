package server

import (
	"encoding/json"
	"net/http"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/issuer"
)

// issueTokenRequest is the wire shape of a POST /internal/tokens body.
type issueTokenRequest struct {
	UserContext struct {
		Username string   `json:"username"`
		Scopes   []string `json:"scopes"`
	} `json:"user_context"`
	RequestedScopes []string `json:"requested_scopes"`
	ExpiresInHours  int      `json:"expires_in_hours"`
	Description     string   `json:"description"`
}

// issueTokenResponse is the wire shape of a successful mint.
type issueTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IssuedAt    string `json:"issued_at"`
	Description string `json:"description,omitempty"`
}

// handleIssueToken wraps the Token Issuer behind an endpoint that, like
// /validate, requires the caller to already hold a valid credential.
func (s *handlers) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := s.resolveIdentity(ctx, r); err != nil {
		writeError(w, err)
		return
	}

	var body issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, coreerrors.NewInvalidArgumentError("malformed request body", err))
		return
	}

	resp, err := s.deps.Issuer.Mint(ctx, issuer.IssueRequest{
		UserContext: issuer.UserContext{
			Username: body.UserContext.Username,
			Scopes:   body.UserContext.Scopes,
		},
		RequestedScopes: body.RequestedScopes,
		ExpiresInHours:  body.ExpiresInHours,
		Description:     body.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issueTokenResponse{
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		Scope:       resp.Scope,
		IssuedAt:    resp.IssuedAt.Format("2006-01-02T15:04:05Z07:00"),
		Description: resp.Description,
	})
}
