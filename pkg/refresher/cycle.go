package refresher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/logger"
	"github.com/mcp-gateway-registry/core/pkg/refresher/configgen"
	"github.com/mcp-gateway-registry/core/pkg/vault"
)

// ignoredFiles are vault-directory entries that are derived configuration,
// not token records, and must never be treated as refresh candidates.
var ignoredFiles = []string{"mcp.json", "vscode_mcp.json"}

func shouldIgnore(name string) bool {
	lower := strings.ToLower(name)
	for _, ignored := range ignoredFiles {
		if lower == ignored {
			return true
		}
	}
	return strings.Contains(lower, "readable")
}

// RefreshProcedure produces a fresh Record for an existing one, dispatched
// by provider name.
type RefreshProcedure func(ctx context.Context, path string, rec *vault.Record) (*vault.Record, error)

// Cycle holds the state one refresh pass over the vault needs.
type Cycle struct {
	VaultDir   string
	Buffer     time.Duration
	Force      bool
	Vault      *vault.Vault
	Procedures map[string]RefreshProcedure
	OnRefresh  func(path string, rec *vault.Record)

	// OnCycleComplete, if set, fires once per Run call with whether any
	// record was refreshed, letting the caller regenerate downstream
	// client configurations without doing so once per record.
	OnCycleComplete func(refreshed bool)
}

// procedureFor maps a vault record's provider (or its filename) to
// one of the three refresh procedures, per the dispatch rule: anything
// naming agentcore uses the AgentCore procedure, "ingress" direction uses
// the Ingress M2M procedure, everything else uses the generic OAuth
// procedure.
func (c *Cycle) procedureFor(filename string, rec *vault.Record) RefreshProcedure {
	lower := strings.ToLower(filename + " " + rec.Provider)
	switch {
	case strings.Contains(lower, "agentcore") || rec.Provider == "bedrock-agentcore":
		return c.Procedures["agentcore"]
	case rec.Direction == vault.DirectionIngress:
		return c.Procedures["ingress"]
	default:
		return c.Procedures["oauth"]
	}
}

// Run performs one pass over the vault directory: any record within the
// buffer window of expiry (or every record, under Force) is handed to its
// dispatched procedure. A failure on one record is logged and does not
// prevent the remaining records from being processed. It returns true if
// at least one record was refreshed, signaling the caller to regenerate
// downstream client configurations.
func (c *Cycle) Run(ctx context.Context) (bool, error) {
	entries, err := os.ReadDir(c.VaultDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	refreshedAny := false
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return refreshedAny, ctx.Err()
		default:
		}

		if entry.IsDir() || shouldIgnore(entry.Name()) {
			continue
		}

		path := filepath.Join(c.VaultDir, entry.Name())
		rec, ok := c.Vault.Read(path)
		if !ok {
			continue
		}

		if !c.Force && c.Vault.IsValid(rec, c.Buffer) {
			continue
		}

		procedure := c.procedureFor(entry.Name(), rec)
		if procedure == nil {
			logger.Warn("no refresh procedure for token record", "path", path, "provider", rec.Provider)
			continue
		}

		fresh, err := procedure(ctx, path, rec)
		if err != nil {
			logger.Error("token refresh failed", "path", path, "error", err.Error())
			continue
		}

		if err := c.Vault.Write(path, fresh); err != nil {
			logger.Error("failed to persist refreshed token", "path", path, "error", err.Error())
			continue
		}

		refreshedAny = true
		if c.OnRefresh != nil {
			c.OnRefresh(path, fresh)
		}
	}

	if c.OnCycleComplete != nil {
		c.OnCycleComplete(refreshedAny)
	}
	return refreshedAny, nil
}

// RegenerateConfigs writes the downstream client configuration files from
// the current set of server entries.
func RegenerateConfigs(mcpPath, vscodePath string, servers []configgen.ServerEntry) error {
	if err := configgen.WriteMCPConfig(mcpPath, servers); err != nil {
		return err
	}
	return configgen.WriteVSCodeConfig(vscodePath, servers)
}

// DiscoverServerEntries builds the server entry list RegenerateConfigs
// needs from the current vault contents: the ingress record supplies the
// Bearer header and provider identifiers shared by every server, and each
// server-scoped egress record layers its own token on top for that one
// server. URLs are not stored in the vault, so they are carried forward
// from the previously written MCP config; a server with no known URL yet
// (first egress token before any manual registry entry exists) is skipped
// and logged rather than written with an empty URL.
func DiscoverServerEntries(vaultDir, mcpConfigPath, provider string, v *vault.Vault) ([]configgen.ServerEntry, error) {
	urls, err := configgen.ReadMCPConfigURLs(mcpConfigPath)
	if err != nil {
		return nil, err
	}

	baseHeaders := map[string]string{}
	if ingress, ok := v.Read(filepath.Join(vaultDir, "ingress.json")); ok {
		baseHeaders["Authorization"] = "Bearer " + ingress.AccessToken
		baseHeaders["X-Provider"] = ingress.Provider
	}

	entries, err := os.ReadDir(vaultDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	prefix := provider + "-"
	var servers []configgen.ServerEntry
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "-egress.json") {
			continue
		}
		server := strings.TrimSuffix(strings.TrimPrefix(name, prefix), "-egress.json")
		if server == "" {
			continue
		}

		url, ok := urls[server]
		if !ok {
			logger.Warn("no known URL for server, skipping config regeneration for it", "server", server)
			continue
		}

		rec, ok := v.Read(filepath.Join(vaultDir, name))
		if !ok {
			continue
		}

		headers := make(map[string]string, len(baseHeaders)+1)
		for k, val := range baseHeaders {
			headers[k] = val
		}
		headers["Authorization"] = "Bearer " + rec.AccessToken

		servers = append(servers, configgen.ServerEntry{Name: server, URL: url, Headers: headers})
	}

	return servers, nil
}
