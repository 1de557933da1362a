package semantic

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
		},
		{
			name:     "similar vectors",
			a:        []float32{1, 1},
			b:        []float32{1, 0},
			expected: 0.7071067, // cos(45 degrees)
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
		{
			name:     "different lengths",
			a:        []float32{1, 0},
			b:        []float32{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "zero vector a",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "zero vector b",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 0, 0},
			expected: 0.0,
		},
		{
			name:     "normalized vectors",
			a:        []float32{0.6, 0.8},
			b:        []float32{0.6, 0.8},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.expected)) > 0.0001 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity_Commutative(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)

	if math.Abs(float64(ab-ba)) > 0.0001 {
		t.Errorf("CosineSimilarity is not commutative: (%v, %v) = %v, (%v, %v) = %v",
			a, b, ab, b, a, ba)
	}
}

func TestSearch(t *testing.T) {
	idx := NewVectorIndex("test-model", 3)
	idx.AddEmbedding("doc1", []float32{1, 0, 0})
	idx.AddEmbedding("doc2", []float32{0.9, 0.1, 0})
	idx.AddEmbedding("doc3", []float32{0, 1, 0})
	idx.AddEmbedding("doc4", []float32{0, 0, 1})

	t.Run("finds similar documents", func(t *testing.T) {
		results, err := idx.Search([]float32{1, 0, 0}, 10, 0.0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 4 {
			t.Errorf("expected 4 results, got %d", len(results))
		}
		if results[0].DocumentID != "doc1" {
			t.Errorf("expected doc1 as top result, got %s", results[0].DocumentID)
		}
		if math.Abs(float64(results[0].Similarity-1.0)) > 0.0001 {
			t.Errorf("expected similarity 1.0 for doc1, got %v", results[0].Similarity)
		}
		if results[1].DocumentID != "doc2" {
			t.Errorf("expected doc2 as second result, got %s", results[1].DocumentID)
		}
	})

	t.Run("respects threshold", func(t *testing.T) {
		results, err := idx.Search([]float32{1, 0, 0}, 10, 0.9)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		// Only doc1 (1.0) and doc2 (~0.99) are above 0.9
		if len(results) != 2 {
			t.Errorf("expected 2 results above threshold 0.9, got %d", len(results))
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		results, err := idx.Search([]float32{1, 0, 0}, 2, 0.0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 results with limit=2, got %d", len(results))
		}
	})

	t.Run("returns sorted results", func(t *testing.T) {
		results, err := idx.Search([]float32{1, 0, 0}, 10, 0.0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Errorf("results not sorted: result[%d].Similarity (%v) > result[%d].Similarity (%v)",
					i, results[i].Similarity, i-1, results[i-1].Similarity)
			}
		}
	})
}

func TestSearch_TiesOrderedByID(t *testing.T) {
	idx := NewVectorIndex("test-model", 2)
	for _, id := range []string{"c", "a", "d", "b"} {
		idx.AddEmbedding(id, []float32{1, 1})
	}

	for run := 0; run < 5; run++ {
		results, err := idx.Search([]float32{1, 1}, 3, 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		got := []string{results[0].DocumentID, results[1].DocumentID, results[2].DocumentID}
		if got[0] != "a" || got[1] != "b" || got[2] != "c" {
			t.Fatalf("run %d: tie order = %v, want [a b c]", run, got)
		}
	}
}

func TestSearch_Errors(t *testing.T) {
	t.Run("empty index returns error", func(t *testing.T) {
		idx := NewVectorIndex("test-model", 3)
		if _, err := idx.Search([]float32{1, 0, 0}, 10, 0.0); err != ErrEmptyIndex {
			t.Errorf("expected ErrEmptyIndex, got %v", err)
		}
	})

	t.Run("dimension mismatch returns error", func(t *testing.T) {
		idx := NewVectorIndex("test-model", 3)
		idx.AddEmbedding("doc1", []float32{1, 0, 0})
		if _, err := idx.Search([]float32{1, 0}, 10, 0.0); err == nil {
			t.Error("expected error for dimension mismatch")
		}
	})

	t.Run("negative limit returns error", func(t *testing.T) {
		idx := NewVectorIndex("test-model", 3)
		idx.AddEmbedding("doc1", []float32{1, 0, 0})
		if _, err := idx.Search([]float32{1, 0, 0}, -1, 0.0); err != ErrNegativeLimit {
			t.Errorf("expected ErrNegativeLimit, got %v", err)
		}
	})

	t.Run("zero limit returns all results", func(t *testing.T) {
		idx := NewVectorIndex("test-model", 3)
		idx.AddEmbedding("doc1", []float32{1, 0, 0})
		idx.AddEmbedding("doc2", []float32{0, 1, 0})

		results, err := idx.Search([]float32{1, 0, 0}, 0, 0.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 results with limit=0, got %d", len(results))
		}
	})
}
