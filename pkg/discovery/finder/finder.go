// Package finder implements the two-stage tool search: a coarse pass over
// service-level embeddings followed by a fine re-rank over the candidate
// services' individual tools.
package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-gateway-registry/core/pkg/discovery/similarity"
	"github.com/mcp-gateway-registry/core/pkg/discovery/store"
)

// Encoder produces embedding vectors for a batch of strings. It is
// satisfied by *embeddings.Manager; finder depends only on this narrow
// interface so it can be tested without a real embedding backend.
type Encoder interface {
	GenerateEmbedding(texts []string) ([][]float32, error)
}

// ToolMatch is one ranked result of Find.
type ToolMatch struct {
	ToolName               string
	ToolParsedDescription  string
	ToolSchema             json.RawMessage
	ServicePath            string
	ServiceName            string
	OverallSimilarityScore float64
}

// ToMCPTool shapes the match into the wire Tool representation a tools/list
// response carries, so a caller serving discovery results over MCP never
// has to duplicate the field mapping itself. A schema that fails to parse
// as an object schema degrades to a bare object rather than failing the
// whole match.
func (m ToolMatch) ToMCPTool() mcp.Tool {
	schema := mcp.ToolInputSchema{Type: "object"}
	if len(m.ToolSchema) > 0 {
		if err := json.Unmarshal(m.ToolSchema, &schema); err != nil {
			schema = mcp.ToolInputSchema{Type: "object"}
		}
	}
	return mcp.Tool{
		Name:        m.ToolName,
		Description: m.ToolParsedDescription,
		InputSchema: schema,
	}
}

type serviceScore struct {
	id    int
	score float64
}

// Find embeds query, narrows to the topKServices nearest services in idx,
// builds one candidate per tool across the surviving enabled services,
// re-embeds and re-ranks those candidates, and returns the top topNTools.
func Find(ctx context.Context, idx *store.Index, encoder Encoder, query string, topKServices, topNTools int) ([]ToolMatch, error) {
	if idx == nil || idx.VectorCount() == 0 {
		return nil, nil
	}
	if topKServices <= 0 {
		topKServices = 3
	}
	if topNTools <= 0 {
		topNTools = 1
	}

	queryVecs, err := encoder.GenerateEmbedding([]string{query})
	if err != nil {
		return nil, fmt.Errorf("finder: failed to embed query: %w", err)
	}
	queryVec := queryVecs[0]

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	services := rankServices(idx, queryVec, topKServices)

	type candidate struct {
		servicePath string
		serverName  string
		tool        store.ToolInfo
		text        string
	}
	var candidates []candidate
	for _, sv := range services {
		servicePath := idx.IDToServicePath[sv.id]
		info, ok := idx.Metadata[servicePath]
		if !ok || !info.IsEnabled {
			continue
		}
		for _, tool := range info.ToolList {
			candidates = append(candidates, candidate{
				servicePath: servicePath,
				serverName:  info.ServerName,
				tool:        tool,
				text:        fmt.Sprintf("Service: %s. Tool: %s. Description: %s", info.ServerName, tool.Name, tool.ParsedDescription),
			})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.text
	}
	candidateVecs, err := encoder.GenerateEmbedding(texts)
	if err != nil {
		return nil, fmt.Errorf("finder: failed to embed candidates: %w", err)
	}

	matches := make([]ToolMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = ToolMatch{
			ToolName:               c.tool.Name,
			ToolParsedDescription:  c.tool.ParsedDescription,
			ToolSchema:             c.tool.Schema,
			ServicePath:            c.servicePath,
			ServiceName:            c.serverName,
			OverallSimilarityScore: similarity.CosineSimilarity(queryVec, candidateVecs[i]),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OverallSimilarityScore > matches[j].OverallSimilarityScore
	})

	if len(matches) > topNTools {
		matches = matches[:topNTools]
	}
	return matches, nil
}

func rankServices(idx *store.Index, queryVec []float32, topK int) []serviceScore {
	scores := make([]serviceScore, 0, len(idx.Vectors))
	for id, vec := range idx.Vectors {
		scores = append(scores, serviceScore{id: id, score: similarity.CosineSimilarity(queryVec, vec)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})
	if len(scores) > topK {
		scores = scores[:topK]
	}
	return scores
}
