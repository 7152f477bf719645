// Package configgen regenerates the two downstream client configuration
// files consumed by MCP clients after the Token Refresher updates any
// token in the vault.
package configgen

import (
	"encoding/json"
	"os"

	"github.com/mcp-gateway-registry/core/pkg/fileutils"
)

// ServerEntry describes one backend server's connection details, built
// from its ingress and any server-scoped egress token headers.
type ServerEntry struct {
	Name    string
	URL     string
	Headers map[string]string
}

// mcpServerEntry is the shape written under "mcp.servers.<name>".
type mcpServerEntry struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// mcpServersEntry is the shape written under "mcpServers.<name>".
type mcpServersEntry struct {
	Type        string            `json:"type"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers"`
	Disabled    bool              `json:"disabled"`
	AlwaysAllow []string          `json:"alwaysAllow"`
}

// WriteMCPConfig writes the "mcp.servers.<name>" keyed configuration file.
func WriteMCPConfig(path string, servers []ServerEntry) error {
	serverMap := make(map[string]mcpServerEntry, len(servers))
	for _, s := range servers {
		serverMap[s.Name] = mcpServerEntry{URL: s.URL, Headers: s.Headers}
	}

	data, err := marshalMCPConfig(serverMap)
	if err != nil {
		return err
	}
	return fileutils.AtomicWriteFile(path, data, 0o600)
}

func marshalMCPConfig(servers map[string]mcpServerEntry) ([]byte, error) {
	doc := struct {
		MCP struct {
			Servers map[string]mcpServerEntry `json:"servers"`
		} `json:"mcp"`
	}{}
	doc.MCP.Servers = servers
	return json.MarshalIndent(doc, "", "  ")
}

// ReadMCPConfigURLs reads the "mcp.servers.<name>" file written by
// WriteMCPConfig and returns each server's URL, keyed by name. A missing
// file is not an error; it returns an empty map, since a refresher running
// against a fresh vault has nothing to regenerate from yet. Headers are not
// returned: the refresher always rebuilds headers from the current token
// vault rather than carrying forward stale credentials.
func ReadMCPConfigURLs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		MCP struct {
			Servers map[string]mcpServerEntry `json:"servers"`
		} `json:"mcp"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(doc.MCP.Servers))
	for name, entry := range doc.MCP.Servers {
		urls[name] = entry.URL
	}
	return urls, nil
}

// WriteVSCodeConfig writes the "mcpServers.<name>" keyed configuration
// file consumed by VS Code-style MCP clients.
func WriteVSCodeConfig(path string, servers []ServerEntry) error {
	serverMap := make(map[string]mcpServersEntry, len(servers))
	for _, s := range servers {
		serverMap[s.Name] = mcpServersEntry{
			Type:        "http",
			URL:         s.URL,
			Headers:     s.Headers,
			Disabled:    false,
			AlwaysAllow: []string{},
		}
	}

	doc := struct {
		MCPServers map[string]mcpServersEntry `json:"mcpServers"`
	}{MCPServers: serverMap}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return fileutils.AtomicWriteFile(path, data, 0o600)
}
