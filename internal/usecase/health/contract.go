package health

import "context"

// IndexCounter checks vector index availability by counting stored chunks.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
