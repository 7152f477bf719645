package finder

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcp-gateway-registry/core/pkg/discovery/store"
)

type stubEncoder struct {
	vectors map[string][]float32
}

func (s *stubEncoder) GenerateEmbedding(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func buildIndex() *store.Index {
	return &store.Index{
		IDToServicePath: map[int]string{1: "weather", 2: "maps", 3: "disabled-svc"},
		Vectors: map[int][]float32{
			1: {1, 0, 0},
			2: {0, 1, 0},
			3: {1, 0, 0},
		},
		Metadata: map[string]store.ServerInfo{
			"weather": {
				ServerName: "Weather", IsEnabled: true,
				ToolList: []store.ToolInfo{
					{Name: "get_forecast", ParsedDescription: "weather forecast"},
					{Name: "get_alerts", ParsedDescription: "weather alerts"},
				},
			},
			"maps": {
				ServerName: "Maps", IsEnabled: true,
				ToolList: []store.ToolInfo{
					{Name: "geocode", ParsedDescription: "convert address to coordinates"},
				},
			},
			"disabled-svc": {
				ServerName: "Disabled", IsEnabled: false,
				ToolList: []store.ToolInfo{{Name: "should_not_appear"}},
			},
		},
	}
}

func TestFind_RanksByCandidateSimilarity(t *testing.T) {
	t.Parallel()
	idx := buildIndex()
	enc := &stubEncoder{vectors: map[string][]float32{
		"what is the weather": {1, 0, 0},
		"Service: Weather. Tool: get_forecast. Description: weather forecast": {1, 0, 0},
		"Service: Weather. Tool: get_alerts. Description: weather alerts":     {0.9, 0.1, 0},
		"Service: Maps. Tool: geocode. Description: convert address to coordinates": {0, 1, 0},
	}}

	matches, err := Find(context.Background(), idx, enc, "what is the weather", 2, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "get_forecast", matches[0].ToolName)
	require.Equal(t, "weather", matches[0].ServicePath)
	require.InDelta(t, 1.0, matches[0].OverallSimilarityScore, 0.0001)
}

func TestFind_SkipsDisabledServices(t *testing.T) {
	t.Parallel()
	idx := buildIndex()
	enc := &stubEncoder{vectors: map[string][]float32{"query": {1, 0, 0}}}

	matches, err := Find(context.Background(), idx, enc, "query", 3, 10)
	require.NoError(t, err)
	for _, m := range matches {
		require.NotEqual(t, "disabled-svc", m.ServicePath)
	}
}

func TestFind_EmptyIndexReturnsNil(t *testing.T) {
	t.Parallel()
	matches, err := Find(context.Background(), &store.Index{}, &stubEncoder{}, "q", 3, 1)
	require.NoError(t, err)
	require.Nil(t, matches)
}

func TestFind_RespectsTopNTools(t *testing.T) {
	t.Parallel()
	idx := buildIndex()
	enc := &stubEncoder{}

	matches, err := Find(context.Background(), idx, enc, "query", 3, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestFind_CancelledContext(t *testing.T) {
	t.Parallel()
	idx := buildIndex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Find(ctx, idx, &stubEncoder{}, "query", 3, 1)
	require.Error(t, err)
}

func TestToolMatch_ToMCPTool_ParsesSchema(t *testing.T) {
	t.Parallel()
	m := ToolMatch{
		ToolName:              "get_forecast",
		ToolParsedDescription: "weather forecast",
		ToolSchema:            json.RawMessage(`{"type":"object","required":["zip"],"properties":{"zip":{"type":"string"}}}`),
	}

	tool := m.ToMCPTool()
	require.Equal(t, "get_forecast", tool.Name)
	require.Equal(t, "weather forecast", tool.Description)
	require.Equal(t, "object", tool.InputSchema.Type)
	require.Equal(t, []string{"zip"}, tool.InputSchema.Required)
}

func TestToolMatch_ToMCPTool_MalformedSchemaDegradesToBareObject(t *testing.T) {
	t.Parallel()
	m := ToolMatch{ToolName: "broken", ToolSchema: json.RawMessage(`not json`)}

	tool := m.ToMCPTool()
	require.Equal(t, "object", tool.InputSchema.Type)
}
