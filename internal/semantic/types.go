// Package semantic builds and searches the on-disk vector index over loaded documents.
package semantic

import "time"

// VectorIndex holds embeddings for all indexed documents.
type VectorIndex struct {
	// Version is the format version for compatibility checking.
	// Check against CurrentIndexVersion when loading.
	Version int `json:"version"`

	ModelName       string    `json:"model_name"` // e.g., "all-minilm:l6-v2"
	Dimensions      int       `json:"dimensions"`
	CreatedAt       time.Time `json:"created_at"`
	DocumentCount   int       `json:"document_count"`
	BuildDurationMs int64     `json:"build_duration_ms"`

	// Embeddings map document IDs to their vector embeddings
	Embeddings map[string][]float32 `json:"-"`
}

// SearchResult represents a document found by similarity search.
type SearchResult struct {
	DocumentID string  `json:"id"`
	Similarity float32 `json:"similarity"`
}

// BuildStats contains statistics from index building.
type BuildStats struct {
	DocumentsIndexed int           `json:"documents_indexed"`
	Duration         time.Duration `json:"duration"`
	IndexSizeBytes   int64         `json:"index_size_bytes"`
}

// Manifest is the build metadata persisted next to an index.
type Manifest struct {
	Model         string    `json:"model"`
	Dimensions    int       `json:"dimensions"`
	SourceHash    string    `json:"source_hash"`
	BuildID       string    `json:"build_id"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
}

// Action describes what EnsureIndex did.
type Action string

const (
	ActionBuilt   Action = "built"   // no index existed
	ActionReused  Action = "reused"  // existing index matches the documents
	ActionStale   Action = "stale"   // existing index kept although the documents changed
	ActionRebuilt Action = "rebuilt" // stale index replaced
)

// EnsureResult reports the outcome of EnsureIndex.
type EnsureResult struct {
	Action      Action      `json:"action"`
	Dir         string      `json:"dir"`
	Manifest    Manifest    `json:"manifest"`
	Stats       *BuildStats `json:"stats,omitempty"`
	StaleReason string      `json:"stale_reason,omitempty"`
}

// Stale reports whether the index on disk does not reflect the current documents.
func (r *EnsureResult) Stale() bool {
	return r.Action == ActionStale
}
