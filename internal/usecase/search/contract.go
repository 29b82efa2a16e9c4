package search

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
)

// Embedder vectorizes the free-text query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever serves nearest-neighbor lookups over the regulation index.
type Retriever interface {
	Query(ctx context.Context, embedding []float32, k int, filter domain.MetadataFilter) ([]domain.QueryHit, error)
}
