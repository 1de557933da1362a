// Package rag answers questions from documents retrieved out of the vector index.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/researchatlas/atlas/internal/document"
	"github.com/researchatlas/atlas/internal/embedding"
)

// DefaultK is the number of documents retrieved per question.
const DefaultK = 5

// Searcher finds the k stored documents nearest to a query vector.
type Searcher interface {
	Search(query []float32, k int) ([]document.Document, error)
}

// Retriever embeds questions and looks them up in a Searcher.
type Retriever struct {
	embedder embedding.Provider
	searcher Searcher
	k        int
}

// NewRetriever creates a retriever returning k documents. Values of k below one mean DefaultK.
func NewRetriever(embedder embedding.Provider, searcher Searcher, k int) *Retriever {
	if k < 1 {
		k = DefaultK
	}
	return &Retriever{embedder: embedder, searcher: searcher, k: k}
}

// K returns the default number of documents per retrieval.
func (r *Retriever) K() int {
	return r.k
}

// RetrieveOption adjusts a single retrieval.
type RetrieveOption func(*retrieveOptions)

type retrieveOptions struct {
	k int
}

// WithLimit overrides k for one call.
func WithLimit(k int) RetrieveOption {
	return func(o *retrieveOptions) {
		if k > 0 {
			o.k = k
		}
	}
}

// Retrieve returns the documents most similar to query, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...RetrieveOption) ([]document.Document, error) {
	o := retrieveOptions{k: r.k}
	for _, opt := range opts {
		opt(&o)
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	docs, err := r.searcher.Search(emb.Vector, o.k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return docs, nil
}

// FormatContext joins document contents with a blank line, keeping retrieval order.
func FormatContext(docs []document.Document) string {
	return strings.Join(document.Contents(docs), "\n\n")
}
