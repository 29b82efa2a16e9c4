package compliance

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
)

// Embedder vectorizes the retrieval query built from application fields.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever serves nearest-neighbor lookups over the regulation index.
type Retriever interface {
	Query(ctx context.Context, embedding []float32, k int, filter domain.MetadataFilter) ([]domain.QueryHit, error)
}

// AnalysisGenerator produces a schema-valid analysis; it must not fail.
type AnalysisGenerator interface {
	GenerateAnalysis(ctx context.Context, fields map[string]string, regulations []string) domain.Analysis
}
