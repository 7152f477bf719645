// Package app provides the entry point for the authgatewayd daemon: the
// HTTP front door for the Authorization Engine, Token Issuer, and OAuth2
// login flow.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/mcp-gateway-registry/core/pkg/auth/provider"
	"github.com/mcp-gateway-registry/core/pkg/auth/selfsigned"
	"github.com/mcp-gateway-registry/core/pkg/config"
	"github.com/mcp-gateway-registry/core/pkg/issuer"
	"github.com/mcp-gateway-registry/core/pkg/logger"
	"github.com/mcp-gateway-registry/core/pkg/scopes"
	"github.com/mcp-gateway-registry/core/pkg/server"
	"github.com/mcp-gateway-registry/core/pkg/session"
)

// Timeout budget for the HTTP server, matching the registry API's own
// graceful-shutdown and per-request limits.
const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

var rootCmd = &cobra.Command{
	Use:               "authgatewayd",
	DisableAutoGenTag: true,
	Short:             "Serve the gateway core's authorization, token issuance, and OAuth2 endpoints",
	Long: `authgatewayd serves /validate for the reverse proxy's authorization
sub-request, /internal/tokens for user-scoped token issuance, and the
/oauth2 login flow, all backed by the configured identity provider and
scope policy document.`,
	RunE: runServe,
}

func init() {
	rootCmd.Flags().String("listen", ":8080", "address to listen on")
	rootCmd.Flags().String("config", "", "path to a YAML config file")
	rootCmd.Flags().Bool("debug", false, "re-initialize logging from the environment (the log level stays at info)")
}

// NewRootCmd creates the authgatewayd root command.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	if debug {
		logger.Initialize()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GeneratedSecret() {
		logger.Warn("no secret_key configured; generated an ephemeral one, issued tokens will not survive a restart")
	}

	deps, err := buildDependencies(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build server dependencies: %w", err)
	}

	router := server.NewServer(deps,
		server.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
		),
		server.WithMetrics(server.NewMetrics()),
	)

	httpServer := &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("authgatewayd listening on %s", listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down authgatewayd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildDependencies assembles server.Dependencies from process
// configuration: the configured identity provider adapter, the scope
// policy store (loaded if a document is configured, left permissive
// otherwise), and the session/token-issuance machinery sharing the
// process-wide secret.
func buildDependencies(ctx context.Context, cfg *config.Config) (*server.Dependencies, error) {
	secret := []byte(cfg.SecretKey)

	scopeStore := scopes.NewStore()
	if cfg.ScopesDocumentPath != "" {
		if err := scopeStore.Load(cfg.ScopesDocumentPath); err != nil {
			logger.Warnf("no scope policy document loaded from %s, running permissive: %v", cfg.ScopesDocumentPath, err)
		}
	}

	adapter, err := buildProviderAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &server.Dependencies{
		Config:     cfg,
		Scopes:     scopeStore,
		Sessions:   session.NewSigner(secret),
		SelfSigned: selfsigned.NewVerifier(secret),
		Issuer: issuer.New(issuer.Config{
			Secret:           secret,
			MaxTokensPerHour: cfg.MaxTokensPerUserPerHour,
			MaxLifetimeHours: cfg.MaxTokenLifetimeHours,
		}),
		Provider: adapter,
	}, nil
}

func buildProviderAdapter(ctx context.Context, cfg *config.Config) (*provider.Adapter, error) {
	return provider.NewAdapterFromConfig(ctx, cfg.AuthProvider, cfg.Cognito, cfg.Keycloak)
}
