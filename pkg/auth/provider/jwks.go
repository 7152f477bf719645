package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
)

// jwksCacheTTL is the original provider's 3600-second JWKS cache lifetime.
// It is not passed to the jwk.Cache registration, so periodic refreshes
// follow jwk.Cache's default interval rather than this value.
const jwksCacheTTL = 3600 * time.Second

// jwksLookupTimeout bounds a single JWKS registration round trip.
const jwksLookupTimeout = 10 * time.Second

// jwksCache wraps a lestrrat-go/jwx/v3 auto-refreshing JWKS cache with the
// lazy-registration and forced-refresh-on-miss behavior the core's
// Provider Adapter requires.
type jwksCache struct {
	url    string
	client *jwk.Cache

	mu           sync.Mutex
	registered   bool
	registerErr  error
	lastMissAt   time.Time
	minMissRetry time.Duration
}

func newJWKSCache(ctx context.Context, url string, httpClient *http.Client) (*jwksCache, error) {
	rc := httprc.NewClient(httprc.WithHTTPClient(httpClient))
	cache, err := jwk.NewCache(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}
	return &jwksCache{url: url, client: cache, minMissRetry: time.Second}, nil
}

func (c *jwksCache) ensureRegistered(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registered {
		return c.registerErr
	}

	regCtx, cancel := context.WithTimeout(ctx, jwksLookupTimeout)
	defer cancel()

	if err := c.client.Register(regCtx, c.url); err != nil {
		c.registerErr = fmt.Errorf("failed to register JWKS URL: %w", err)
	} else {
		c.registerErr = nil
	}
	c.registered = true
	return c.registerErr
}

// forceRefresh re-registers the JWKS URL, tolerating key rotation that
// happened since the last fetch. It is invoked at most once per
// minMissRetry window, to avoid hammering the identity provider when many
// concurrent requests hit the same stale key simultaneously.
func (c *jwksCache) forceRefresh(ctx context.Context) error {
	c.mu.Lock()
	if time.Since(c.lastMissAt) < c.minMissRetry {
		c.mu.Unlock()
		return nil
	}
	c.lastMissAt = time.Now()
	c.mu.Unlock()

	regCtx, cancel := context.WithTimeout(ctx, jwksLookupTimeout)
	defer cancel()
	return c.client.Register(regCtx, c.url)
}

// lookupKey resolves the RSA key matching token's kid header, forcing one
// refresh if the key is not found on the first attempt (tolerates JWKS key
// rotation between the cache's TTL-driven refreshes).
func (c *jwksCache) lookupKey(ctx context.Context, token *jwt.Token) (any, error) {
	if err := c.ensureRegistered(ctx); err != nil {
		return nil, coreerrors.NewUpstreamProviderError("JWKS registration failed", err)
	}

	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, coreerrors.NewAuthMalformedError(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"]), nil)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, coreerrors.NewAuthMalformedError("token header missing kid", nil)
	}

	key, err := c.resolve(ctx, kid)
	if err == nil {
		return key, nil
	}

	if refreshErr := c.forceRefresh(ctx); refreshErr != nil {
		return nil, coreerrors.NewUpstreamProviderError("no_matching_key and forced refresh failed", refreshErr)
	}
	key, err = c.resolve(ctx, kid)
	if err != nil {
		return nil, coreerrors.NewAuthMalformedError("no_matching_key", err)
	}
	return key, nil
}

func (c *jwksCache) resolve(ctx context.Context, kid string) (any, error) {
	keySet, err := c.client.Lookup(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup JWKS: %w", err)
	}
	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key ID %s not found in JWKS", kid)
	}
	var rawKey any
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("failed to export raw key: %w", err)
	}
	return rawKey, nil
}
