package server

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolsCallMethod is the JSON-RPC method name that carries a tool
// invocation, taken from mcp-go's method constants rather than a
// locally-spelled string literal.
const toolsCallMethod = string(mcp.MethodToolsCall)

// jsonRPCEnvelope is the subset of a JSON-RPC 2.0 request the Authorization
// Engine needs: the method name, and, for a tool call, the tool's name.
type jsonRPCEnvelope struct {
	Method string `json:"method"`
	Params struct {
		Name string `json:"name"`
	} `json:"params"`
}

// parseEnvelope extracts the method and, for tools/call, the tool name
// from the proxy-forwarded X-Body header. An empty header is not an
// error: some proxy sub-requests (e.g. a bare health probe through the
// gateway) carry no body to describe.
func parseEnvelope(body string) (method string, toolName *string, err error) {
	if strings.TrimSpace(body) == "" {
		return "", nil, nil
	}

	var env jsonRPCEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return "", nil, err
	}

	if env.Method == toolsCallMethod && env.Params.Name != "" {
		name := env.Params.Name
		return env.Method, &name, nil
	}
	return env.Method, nil, nil
}

// serverNameFromURL extracts the first path segment of the proxy's
// X-Original-URL header, which names the downstream MCP server the
// request targets.
func serverNameFromURL(originalURL string) string {
	u, err := url.Parse(originalURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}
