package chat

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
)

// Chatter runs a free-form conversation through the model tiers.
type Chatter interface {
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Embedder vectorizes the latest user turn for retrieval augmentation.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever serves nearest-neighbor lookups over the regulation index.
type Retriever interface {
	Query(ctx context.Context, embedding []float32, k int, filter domain.MetadataFilter) ([]domain.QueryHit, error)
	Count(ctx context.Context) (int, error)
}
