// Package embedding provides vector embedding generation for text.
package embedding

import "errors"

// Errors returned by embedding providers.
var (
	ErrUnavailable       = errors.New("embedding service unavailable")
	ErrModelNotFound     = errors.New("embedding model not found")
	ErrDimensionMismatch = errors.New("unexpected embedding dimensions")
)

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // e.g. 384 dimensions for all-minilm
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// fromFloat64 narrows an API vector to the float32 form stored in the index.
func fromFloat64(v []float64) Embedding {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return Embedding{Vector: out}
}
