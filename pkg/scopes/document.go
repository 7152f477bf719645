// Package scopes loads the scope policy document and resolves
// (scope, server, method, tool) access decisions against it.
package scopes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
)

// ServerEntry grants a scope the ability to invoke named methods, and
// named tools under tools/call, on one server.
type ServerEntry struct {
	Server  string   `yaml:"server"`
	Methods []string `yaml:"methods"`
	Tools   []string `yaml:"tools"`
}

// Document is the full scope policy: group-to-scope mappings plus, per
// scope name, the list of server entries it grants.
type Document struct {
	GroupMappings map[string][]string      `yaml:"group_mappings"`
	Scopes        map[string][]ServerEntry `yaml:"scopes"`
}

// LoadDocument reads and parses a scope policy document from path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope policy document: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, coreerrors.NewInvalidArgumentError("failed to parse scope policy document", err)
	}
	if doc.GroupMappings == nil {
		doc.GroupMappings = map[string][]string{}
	}
	if doc.Scopes == nil {
		doc.Scopes = map[string][]ServerEntry{}
	}
	return &doc, nil
}
