// Package server implements the gateway core's HTTP surface: the
// Authorization Engine's /validate endpoint, token issuance, the OAuth2
// login dance, and the thin config/health endpoints, wired over chi the
// way the teacher's registry API wires its own router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mcp-gateway-registry/core/pkg/auth/provider"
	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	"github.com/mcp-gateway-registry/core/pkg/config"
	"github.com/mcp-gateway-registry/core/pkg/issuer"
	"github.com/mcp-gateway-registry/core/pkg/scopes"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

// requestTimeout bounds how long any single handler may run before chi's
// Timeout middleware cancels its context, matching the teacher's
// registry API request budget.
const requestTimeout = 10 * time.Second

// Dependencies collects everything a handler needs. It is built once at
// process start and never mutated; individual fields (the scope store,
// the provider adapter) are themselves safe for concurrent use.
type Dependencies struct {
	Config     *config.Config
	Scopes     *scopes.Store
	Sessions   *session.Signer
	SelfSigned *selfsigned.Verifier
	Issuer     *issuer.Issuer
	Provider   *provider.Adapter
}

// Option configures the router returned by NewServer.
type Option func(*chi.Mux)

// WithMiddlewares appends mws, in order, to every route the router serves.
func WithMiddlewares(mws ...func(http.Handler) http.Handler) Option {
	return func(r *chi.Mux) {
		r.Use(mws...)
	}
}

// NewServer builds the gateway core's router. deps must be fully
// populated; NewServer does not validate it, since a missing dependency
// is a startup-time configuration error the caller should have already
// refused to construct.
func NewServer(deps *Dependencies, opts ...Option) *chi.Mux {
	s := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(requestTimeout))
	for _, opt := range opts {
		opt(r)
	}

	r.Get("/validate", s.handleValidate)
	r.Get("/config", s.handleConfig)
	r.Get("/health", s.handleHealth)
	r.Post("/internal/tokens", s.handleIssueToken)
	r.Get("/oauth2/providers", s.handleOAuthProviders)
	r.Get("/oauth2/login/{provider}", s.handleOAuthLogin)
	r.Get("/oauth2/callback/{provider}", s.handleOAuthCallback)
	r.Get("/oauth2/logout/{provider}", s.handleOAuthLogout)

	return r
}

// handlers closes over Dependencies; every route handler is a method on
// this type so they share deps without a package-level global.
type handlers struct {
	deps *Dependencies
}
