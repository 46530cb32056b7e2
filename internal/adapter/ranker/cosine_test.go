package ranker

import (
	"math"
	"testing"

	"assistant/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosine_SelfIsOne(t *testing.T) {
	vectors := [][]float64{
		{1, 2, 3},
		{0.5, -0.5},
		{10, 0, 0, 4},
	}
	for _, v := range vectors {
		if got := Cosine(v, v); !almostEqual(got, 1.0) {
			t.Errorf("Cosine(v, v) = %f, want 1.0 for %v", got, v)
		}
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}
	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("Cosine not symmetric: %f vs %f", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	if got := Cosine(zero, []float64{1, 2, 3}); got != 0 {
		t.Errorf("expected 0 for zero vector, got %f", got)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	if got := Cosine([]float64{1, 0}, []float64{0, 1}); !almostEqual(got, 0) {
		t.Errorf("expected 0 for orthogonal vectors, got %f", got)
	}
}

func TestDot_TruncatesToShorter(t *testing.T) {
	// Mismatched lengths are a logic error in real data; the contract is
	// just that Dot does not panic and uses the common prefix.
	if got := Dot([]float64{1, 2, 3}, []float64{1, 1}); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
}

func testIndex() domain.Index {
	mk := func(id string, emb ...float64) domain.Chunk {
		return domain.Chunk{ID: id, DocID: id, Title: id, Tags: []string{}, Text: "text " + id, Embedding: emb}
	}
	return domain.Index{
		OK:  true,
		Dim: 2,
		Chunks: []domain.Chunk{
			mk("a", 1, 0),
			mk("b", 0, 1),
			mk("c", 1, 1),
		},
	}
}

func TestTopK_OrderAndLength(t *testing.T) {
	idx := testIndex()
	got := TopK(idx, []float64{0, 1}, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Chunk.ID != "b" || got[1].Chunk.ID != "c" {
		t.Errorf("unexpected order: %s, %s", got[0].Chunk.ID, got[1].Chunk.ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Error("results not sorted by descending score")
		}
	}
}

func TestTopK_KLargerThanIndex(t *testing.T) {
	idx := testIndex()
	got := TopK(idx, []float64{1, 0}, 10)
	if len(got) != len(idx.Chunks) {
		t.Errorf("expected %d results, got %d", len(idx.Chunks), len(got))
	}
}

func TestTopK_StableTies(t *testing.T) {
	mk := func(id string) domain.Chunk {
		return domain.Chunk{ID: id, Tags: []string{}, Embedding: []float64{1, 0}}
	}
	idx := domain.Index{OK: true, Dim: 2, Chunks: []domain.Chunk{mk("first"), mk("second"), mk("third")}}

	got := TopK(idx, []float64{1, 0}, 3)
	if got[0].Chunk.ID != "first" || got[1].Chunk.ID != "second" || got[2].Chunk.ID != "third" {
		t.Errorf("ties must preserve input order, got %s %s %s",
			got[0].Chunk.ID, got[1].Chunk.ID, got[2].Chunk.ID)
	}
}

func TestTopK_NotOKIndex(t *testing.T) {
	if got := TopK(domain.Index{}, []float64{1, 0}, 5); got != nil {
		t.Errorf("expected nil for failed index, got %v", got)
	}
}

func TestTopK_DefaultK(t *testing.T) {
	chunks := make([]domain.Chunk, 10)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: "c", Embedding: []float64{float64(i), 1}}
	}
	idx := domain.Index{OK: true, Dim: 2, Chunks: chunks}

	if got := TopK(idx, []float64{1, 1}, 0); len(got) != DefaultK {
		t.Errorf("expected %d results for k<=0, got %d", DefaultK, len(got))
	}
}

func TestTopK_ExactMatchScoresOne(t *testing.T) {
	idx := testIndex()
	got := TopK(idx, idx.Chunks[2].Embedding, 1)
	if got[0].Chunk.ID != "c" || !almostEqual(got[0].Score, 1.0) {
		t.Errorf("expected exact match c with score 1.0, got %s %f", got[0].Chunk.ID, got[0].Score)
	}
}
