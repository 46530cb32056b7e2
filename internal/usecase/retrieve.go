package usecase

import (
	"context"
	"fmt"

	"assistant/internal/adapter/ranker"
	"assistant/internal/domain"
	"assistant/internal/port"
)

// RetrieveUseCase embeds a query and ranks the knowledge base by
// cosine similarity.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    domain.Index
	topK     int
}

func NewRetrieveUseCase(embedder port.Embedder, index domain.Index, topK int) *RetrieveUseCase {
	if topK <= 0 {
		topK = ranker.DefaultK
	}
	return &RetrieveUseCase{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// Retrieve returns the top-k chunks for the query. k <= 0 uses the
// configured default. Embedding failures propagate to the caller, who
// decides the fail-closed handling.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int) ([]domain.Retrieval, error) {
	if k <= 0 {
		k = u.topK
	}

	vecs, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	return ranker.TopK(u.index, vecs[0], k), nil
}
