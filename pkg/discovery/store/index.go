package store

import "encoding/json"

// ToolInfo is one entry in a ServerInfo's tool list.
type ToolInfo struct {
	Name              string
	ParsedDescription string
	Schema            json.RawMessage
}

// ServerInfo is the metadata the finder needs about one indexed service,
// matching spec's full_server_info shape.
type ServerInfo struct {
	ServerName string
	IsEnabled  bool
	ToolList   []ToolInfo
}

// Index is an immutable snapshot of the tool index: the position-to-
// service_path bijection, per-service metadata, and the embedding vector at
// each position. Readers obtain one via Store.Snapshot and never see it
// mutate underneath them.
type Index struct {
	IDToServicePath map[int]string
	Metadata        map[string]ServerInfo
	Vectors         map[int][]float32
}

// VectorCount reports how many service vectors are indexed.
func (idx *Index) VectorCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.Vectors)
}

// emptyIndex returns a non-nil Index with no entries, used before the first
// successful Reload and as the result of Reload against an empty database.
func emptyIndex() *Index {
	return &Index{
		IDToServicePath: map[int]string{},
		Metadata:        map[string]ServerInfo{},
		Vectors:         map[int][]float32{},
	}
}
