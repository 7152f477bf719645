// Package app provides the entry point for the tokenrefresherd daemon.
package app

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-gateway-registry/core/pkg/auth/provider"
	"github.com/mcp-gateway-registry/core/pkg/config"
	"github.com/mcp-gateway-registry/core/pkg/logger"
	"github.com/mcp-gateway-registry/core/pkg/refresher"
	"github.com/mcp-gateway-registry/core/pkg/vault"
)

const (
	defaultInterval = 5 * time.Minute
	defaultBuffer   = 10 * time.Minute
)

var rootCmd = &cobra.Command{
	Use:               "tokenrefresherd",
	DisableAutoGenTag: true,
	Short:             "Scan the token vault and refresh tokens nearing expiry",
	Long: `tokenrefresherd scans the token vault on a fixed interval, refreshing any
record whose expiry falls within the buffer window, and regenerates
downstream client configuration files whenever a refresh occurs. Only one
instance runs per host; a previously running instance is terminated on
start unless --no-kill is set.`,
	RunE: runRefresher,
}

func init() {
	rootCmd.Flags().Duration("interval", defaultInterval, "how often to scan the vault")
	rootCmd.Flags().Duration("buffer", defaultBuffer, "refresh tokens expiring within this window")
	rootCmd.Flags().Bool("once", false, "run a single cycle and exit instead of looping")
	rootCmd.Flags().Bool("force", false, "refresh every record regardless of expiry")
	rootCmd.Flags().Bool("no-kill", false, "do not terminate a previously running instance")
	rootCmd.Flags().Bool("debug", false, "re-initialize logging from the environment (the log level stays at info)")
	rootCmd.Flags().String("config", "", "path to a YAML config file")
}

// NewRootCmd creates the tokenrefresherd root command.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func runRefresher(cmd *cobra.Command, _ []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	buffer, _ := cmd.Flags().GetDuration("buffer")
	once, _ := cmd.Flags().GetBool("once")
	force, _ := cmd.Flags().GetBool("force")
	noKill, _ := cmd.Flags().GetBool("no-kill")
	debug, _ := cmd.Flags().GetBool("debug")
	configPath, _ := cmd.Flags().GetString("config")

	if debug {
		logger.Initialize()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	adapter, err := provider.NewAdapterFromConfig(cmd.Context(), cfg.AuthProvider, cfg.Cognito, cfg.Keycloak)
	if err != nil {
		return fmt.Errorf("failed to build identity provider adapter: %w", err)
	}

	v := vault.NewVault()
	cycle := &refresher.Cycle{
		VaultDir:   cfg.VaultDir,
		Buffer:     buffer,
		Force:      force,
		Vault:      v,
		Procedures: buildProcedures(cfg, adapter),
		OnRefresh: func(path string, _ *vault.Record) {
			logger.Infof("refreshed token record at %s", path)
		},
	}

	sup := refresher.NewSupervisor(interval, cycle)
	sup.NoKill = noKill

	if once {
		refreshed, err := cycle.Run(cmd.Context())
		if err != nil {
			return err
		}
		if refreshed {
			return regenerateDownstreamConfigs(cfg, v)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cycle.OnCycleComplete = func(refreshed bool) {
		if !refreshed {
			return
		}
		if err := regenerateDownstreamConfigs(cfg, v); err != nil {
			logger.Errorf("failed to regenerate downstream configs: %v", err)
		}
	}

	return sup.Start(ctx)
}

// regenerateDownstreamConfigs rebuilds the two downstream client
// configuration files from the vault's current egress tokens, preserving
// each server's URL from the previously written MCP config.
func regenerateDownstreamConfigs(cfg *config.Config, v *vault.Vault) error {
	servers, err := refresher.DiscoverServerEntries(cfg.VaultDir, cfg.MCPConfigPath, string(cfg.AuthProvider), v)
	if err != nil {
		return err
	}
	return refresher.RegenerateConfigs(cfg.MCPConfigPath, cfg.VSCodeConfigPath, servers)
}

// buildProcedures wires the three refresh procedures: AgentCore and Ingress
// both run a client-credentials grant against the configured gateway
// identity provider, delegated straight to its adapter, while the generic
// OAuth procedure refreshes third-party SaaS tokens (atlassian, google,
// github, microsoft) that were never issued by that provider and so keep
// their own client credentials and endpoint.
func buildProcedures(cfg *config.Config, adapter *provider.Adapter) map[string]refresher.RefreshProcedure {
	tokenEndpoint, clientID, clientSecret := providerTokenCredentials(cfg)

	return map[string]refresher.RefreshProcedure{
		"agentcore": refresher.AgentCoreProcedure(adapter, ""),
		"oauth":     refresher.GenericOAuthProcedure(tokenEndpoint, clientID, clientSecret),
		"ingress":   refresher.IngressM2MProcedure(adapter, ""),
	}
}

func providerTokenCredentials(cfg *config.Config) (tokenEndpoint, clientID, clientSecret string) {
	switch cfg.AuthProvider {
	case config.ProviderKeycloak:
		return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", cfg.Keycloak.URL, cfg.Keycloak.Realm),
			cfg.Keycloak.ClientID, cfg.Keycloak.ClientSecret
	default:
		return fmt.Sprintf("https://%s.auth.%s.amazoncognito.com/oauth2/token", cfg.Cognito.UserPoolID, cfg.Cognito.Region),
			cfg.Cognito.ClientID, cfg.Cognito.ClientSecret
	}
}
