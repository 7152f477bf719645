// Package naming holds the Token Vault's file-naming rules as pure
// path-building functions. The Refresher and the downstream config
// regenerator do not call them; DiscoverServerEntries in pkg/refresher
// matches egress file names itself.
package naming

import (
	"fmt"
	"path/filepath"
)

// IngressPath returns the path of the process-wide inbound M2M token.
func IngressPath(dir string) string {
	return filepath.Join(dir, "ingress.json")
}

// ProviderEgressPath returns the path of the default per-provider egress
// token.
func ProviderEgressPath(dir, provider string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-egress.json", provider))
}

// ServerEgressPath returns the path of a server-scoped egress token. It
// only builds the path; it does not check which files exist or choose
// between this path and ProviderEgressPath.
func ServerEgressPath(dir, provider, server string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s-egress.json", provider, server))
}

// AgentTokenPath returns the path of an agent-issued token.
func AgentTokenPath(dir, agentName string) string {
	return filepath.Join(dir, fmt.Sprintf("agent-%s-token.json", agentName))
}
