package ingest

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
)

// Embedder batch-vectorizes chunk texts.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index is the storage contract for ingested chunks.
type Index interface {
	AddBatch(
		ctx context.Context,
		texts []string, embeddings [][]float32,
		metadatas []domain.ChunkMetadata, ids []string,
	) error
}
