package refresher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/auth/provider"
	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/vault"
)

// httpTimeout bounds every outbound refresh call, per the per-request
// timeout ceiling the cycle's cancellation model requires.
const httpTimeout = 60 * time.Second

// AgentCoreProcedure refreshes a bedrock-agentcore token via a
// client-credentials grant against the configured identity provider,
// delegating to its adapter so the refresher never duplicates the
// provider's own endpoint and client-credential construction.
func AgentCoreProcedure(adapter *provider.Adapter, scope string) RefreshProcedure {
	return func(ctx context.Context, _ string, rec *vault.Record) (*vault.Record, error) {
		tok, err := adapter.GetM2MToken(ctx, scope)
		if err != nil {
			return nil, err
		}
		return applyM2MToken(rec, tok), nil
	}
}

// GenericOAuthProcedure refreshes any OAuth2-compatible record with a
// refresh-token grant. A record without a refresh token would need an
// interactive flow, which the refresher does not run: the procedure
// returns an upstream_provider error, Cycle.Run logs it and moves on to
// the next record, and the stored record is left as it is.
func GenericOAuthProcedure(tokenEndpoint, clientID, clientSecret string) RefreshProcedure {
	return func(ctx context.Context, _ string, rec *vault.Record) (*vault.Record, error) {
		if rec.RefreshToken == "" {
			return nil, coreerrors.NewUpstreamProviderError(
				"no refresh token on record; interactive re-authentication required", nil)
		}

		client := &http.Client{Timeout: httpTimeout}
		form := url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"refresh_token": {rec.RefreshToken},
		}
		tok, err := postForm(ctx, client, tokenEndpoint, form)
		if err != nil {
			return nil, err
		}
		return applyTokenResponse(rec, tok), nil
	}
}

// IngressM2MProcedure refreshes the process-wide inbound M2M token via a
// client-credentials grant against the configured identity provider.
func IngressM2MProcedure(adapter *provider.Adapter, scope string) RefreshProcedure {
	return func(ctx context.Context, _ string, rec *vault.Record) (*vault.Record, error) {
		tok, err := adapter.GetM2MToken(ctx, scope)
		if err != nil {
			return nil, err
		}
		return applyM2MToken(rec, tok), nil
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, coreerrors.NewInternalError("failed to build refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, coreerrors.NewUpstreamProviderError("refresh request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, coreerrors.NewUpstreamProviderError("refresh endpoint returned non-200", nil)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, coreerrors.NewUpstreamProviderError("failed to decode refresh response", err)
	}
	return &tok, nil
}

func applyTokenResponse(rec *vault.Record, tok *tokenResponse) *vault.Record {
	now := time.Now()
	fresh := *rec
	fresh.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		fresh.TokenType = tok.TokenType
	}
	fresh.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second).Unix()
	fresh.ExpiresAtHuman = now.Add(time.Duration(tok.ExpiresIn) * time.Second).UTC().Format(time.RFC3339)
	fresh.SavedAt = now.Unix()
	return &fresh
}

func applyM2MToken(rec *vault.Record, tok *provider.M2MToken) *vault.Record {
	now := time.Now()
	fresh := *rec
	fresh.AccessToken = tok.AccessToken
	if tok.TokenType != "" {
		fresh.TokenType = tok.TokenType
	}
	fresh.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second).Unix()
	fresh.ExpiresAtHuman = now.Add(time.Duration(tok.ExpiresIn) * time.Second).UTC().Format(time.RFC3339)
	fresh.SavedAt = now.Unix()
	return &fresh
}
