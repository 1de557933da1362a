package semantic

import (
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}

// Search finds documents similar to a query embedding.
// Results are sorted by similarity (highest first, ties by document ID) and filtered by threshold.
// A limit of 0 returns every result.
func (idx *VectorIndex) Search(query []float32, limit int, threshold float32) ([]SearchResult, error) {
	if limit < 0 {
		return nil, ErrNegativeLimit
	}
	if len(idx.Embeddings) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != idx.Dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), idx.Dimensions)
	}

	results := make([]SearchResult, 0, len(idx.Embeddings))
	for docID, embedding := range idx.Embeddings {
		sim := CosineSimilarity(query, embedding)
		if sim >= threshold {
			results = append(results, SearchResult{
				DocumentID: docID,
				Similarity: sim,
			})
		}
	}

	sortResults(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// sortResults orders by similarity descending. Map iteration is random, so ties fall back to ID.
func sortResults(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocumentID < results[j].DocumentID
	})
}
