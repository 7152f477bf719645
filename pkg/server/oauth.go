package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

// oauthStateCookieName holds the short-lived PKCE verifier and state
// nonce between the login redirect and the provider's callback.
const oauthStateCookieName = "mcp_gateway_oauth_state"

// oauthStateMaxAge bounds how long a login attempt may take to return
// from the identity provider before its state cookie is rejected.
const oauthStateMaxAge = 5 * time.Minute

// oauthState is the payload signed into the temporary state cookie.
type oauthState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

// providerInfo describes one OAuth2 login option for GET /oauth2/providers.
type providerInfo struct {
	Name     string `json:"name"`
	LoginURL string `json:"login_url"`
}

func (s *handlers) handleOAuthProviders(w http.ResponseWriter, r *http.Request) {
	var providers []providerInfo
	if s.deps.Provider != nil {
		providers = append(providers, providerInfo{
			Name:     s.deps.Provider.Name(),
			LoginURL: "/oauth2/login/" + s.deps.Provider.Name(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (s *handlers) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	if err := s.requireConfiguredProvider(chi.URLParam(r, "provider")); err != nil {
		writeError(w, err)
		return
	}

	verifier, challenge, err := newPKCEPair()
	if err != nil {
		writeError(w, coreerrors.NewInternalError("failed to generate PKCE verifier", err))
		return
	}
	state, err := randomURLSafeString(32)
	if err != nil {
		writeError(w, coreerrors.NewInternalError("failed to generate login state", err))
		return
	}

	signed, err := s.deps.Sessions.Sign(oauthState{State: state, Verifier: verifier})
	if err != nil {
		writeError(w, err)
		return
	}
	setCookie(w, r, oauthStateCookieName, signed, oauthStateMaxAge)

	redirectURI := callbackURL(r, s.deps.Provider.Name())
	http.Redirect(w, r, s.deps.Provider.BuildAuthURL(state, redirectURI, challenge), http.StatusFound)
}

func (s *handlers) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := s.requireConfiguredProvider(chi.URLParam(r, "provider")); err != nil {
		writeError(w, err)
		return
	}

	cookie, err := r.Cookie(oauthStateCookieName)
	if err != nil {
		writeError(w, coreerrors.NewAuthMissingError("no login in progress", err))
		return
	}
	var pending oauthState
	if err := s.deps.Sessions.Verify(cookie.Value, oauthStateMaxAge, &pending); err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != pending.State {
		writeError(w, coreerrors.NewAuthInvalidSignatureError("oauth state mismatch", nil))
		return
	}
	code := query.Get("code")
	if code == "" {
		writeError(w, coreerrors.NewInvalidArgumentError("missing authorization code", nil))
		return
	}

	redirectURI := callbackURL(r, s.deps.Provider.Name())
	exchanged, err := s.deps.Provider.ExchangeCodeForToken(r.Context(), code, redirectURI, pending.Verifier)
	if err != nil {
		writeError(w, err)
		return
	}

	userInfo, err := s.deps.Provider.GetUserInfo(r.Context(), exchanged.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := session.Payload{
		Username:     stringClaim(userInfo, "preferred_username", "username", "sub"),
		Groups:       stringSliceClaim(userInfo, "groups", "cognito:groups"),
		ProviderType: s.deps.Provider.Name(),
		IsOAuth:      true,
		SessionID:    mustRandomURLSafeString(16),
		LoginTime:    time.Now().Unix(),
	}
	signed, err := s.deps.Sessions.Sign(payload)
	if err != nil {
		writeError(w, err)
		return
	}

	clearCookie(w, oauthStateCookieName)
	setCookie(w, r, sessionCookieName, signed, time.Duration(s.deps.Config.SessionCookieMaxAgeSeconds)*time.Second)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *handlers) handleOAuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.requireConfiguredProvider(chi.URLParam(r, "provider")); err != nil {
		writeError(w, err)
		return
	}
	clearCookie(w, sessionCookieName)
	redirectURI := callbackURL(r, "")
	http.Redirect(w, r, s.deps.Provider.BuildLogoutURL(redirectURI), http.StatusFound)
}

func (s *handlers) requireConfiguredProvider(name string) error {
	if s.deps.Provider == nil || s.deps.Provider.Name() != name {
		return coreerrors.NewInvalidArgumentError("unknown oauth provider: "+name, nil)
	}
	return nil
}

func callbackURL(r *http.Request, provider string) string {
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}
	path := "/oauth2/callback/" + provider
	if provider == "" {
		path = "/"
	}
	return scheme + "://" + r.Host + path
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}

func newPKCEPair() (verifier, challenge string, err error) {
	verifier, err = randomURLSafeString(32)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func randomURLSafeString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// mustRandomURLSafeString panics on crypto/rand failure, which indicates a
// broken entropy source the process should not continue running with.
func mustRandomURLSafeString(n int) string {
	s, err := randomURLSafeString(n)
	if err != nil {
		panic("server: failed to generate random string: " + err.Error())
	}
	return s
}

func stringClaim(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func stringSliceClaim(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
