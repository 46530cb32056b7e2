package port

import (
	"context"

	"assistant/internal/domain"
)

// Retriever returns the top-k knowledge chunks for a query,
// ordered by descending score.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Retrieval, error)
}
