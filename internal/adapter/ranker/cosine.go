// Package ranker scores knowledge chunks against a query vector with
// brute-force cosine similarity. The index is small enough that a full
// scan per query is cheaper than maintaining an ANN structure.
package ranker

import (
	"math"
	"sort"

	"assistant/internal/domain"
)

// DefaultK is the number of retrievals returned when the caller does
// not ask for a specific k.
const DefaultK = 6

// Dot computes the dot product over the shorter of the two vectors.
// Mismatched lengths indicate a logic error upstream; the loader
// enforces a uniform dimension, so truncation is defensive only.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

// Norm computes the Euclidean norm, treating a zero norm as 1 so an
// all-zero vector scores 0 against anything instead of dividing by zero.
func Norm(a []float64) float64 {
	if n := math.Sqrt(Dot(a, a)); n != 0 {
		return n
	}
	return 1
}

// Cosine computes the cosine similarity between two vectors, in [-1, 1].
func Cosine(a, b []float64) float64 {
	return Dot(a, b) / (Norm(a) * Norm(b))
}

// TopK scores every chunk in the index against the query vector and
// returns the k best matches in descending score order. Ties keep the
// original index order. Returns nil when the index failed to load.
func TopK(idx domain.Index, query []float64, k int) []domain.Retrieval {
	if !idx.OK {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}

	scored := make([]domain.Retrieval, len(idx.Chunks))
	for i, chunk := range idx.Chunks {
		scored[i] = domain.Retrieval{
			Chunk: chunk,
			Score: Cosine(query, chunk.Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
