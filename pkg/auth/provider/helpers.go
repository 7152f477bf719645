package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
)

func asCoreError(err error) (*coreerrors.Error, bool) {
	var coreErr *coreerrors.Error
	if errors.As(err, &coreErr) {
		return coreErr, true
	}
	return nil, false
}

// claimString returns the first non-empty string claim among keys.
func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// claimStringSlice returns the first present []string-shaped claim among
// keys, tolerating both []any and []string encodings.
func claimStringSlice(claims jwt.MapClaims, keys ...string) []string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case []string:
			if len(v) > 0 {
				return v
			}
		case []any:
			if len(v) == 0 {
				continue
			}
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

// audienceMatches reports whether want is present among the token's
// audience claim, which jwt.MapClaims may encode as a string or []any.
func audienceMatches(claims jwt.MapClaims, want string) bool {
	if want == "" {
		return true
	}
	auds, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, a := range auds {
		if a == want {
			return true
		}
	}
	return false
}

// audienceMatchesAny reports whether any of wants is present in the
// token's audience claim, used by Keycloak which accepts account, its own
// client id, and the M2M client id interchangeably.
func audienceMatchesAny(claims jwt.MapClaims, wants []string) bool {
	auds, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, want := range wants {
		if want == "" {
			continue
		}
		for _, a := range auds {
			if a == want {
				return true
			}
		}
	}
	return false
}

func fetchUserInfo(ctx context.Context, client *http.Client, endpoint, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, coreerrors.NewInternalError("failed to build userinfo request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, coreerrors.NewUpstreamProviderError("userinfo request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, coreerrors.NewUpstreamProviderError(fmt.Sprintf("userinfo endpoint returned %d", resp.StatusCode), nil)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, coreerrors.NewUpstreamProviderError("failed to decode userinfo response", err)
	}
	return out, nil
}
