package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

const (
	minResults = 1
	maxResults = 20
)

// Result is one ranked search hit.
type Result struct {
	ID       string               `json:"id"`
	Text     string               `json:"text"`
	Distance float64              `json:"distance"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

// Service exposes direct semantic search over the regulation index, the
// tool compliance officers use to spot-check what the assistant retrieves.
type Service struct {
	embedder  Embedder
	retriever Retriever
	logger    *zap.Logger
}

// New creates a search service.
func New(embedder Embedder, retriever Retriever, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, retriever: retriever, logger: logger}
}

// Search runs a semantic query. k is clamped to [1,20]; an empty
// department means no metadata filtering.
func (s *Service) Search(ctx context.Context, query, department string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if k < minResults {
		k = minResults
	}
	if k > maxResults {
		k = maxResults
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter domain.MetadataFilter
	if department != "" {
		filter = domain.MetadataFilter{"department": department}
	}

	hits, err := s.retriever.Query(ctx, embedding.Embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			ID:       hit.ID,
			Text:     hit.Text,
			Distance: hit.Distance,
			Metadata: hit.Metadata,
		}
	}

	s.logger.Debug("search complete",
		zap.String("department", department),
		zap.Int("k", k),
		zap.Int("results", len(results)),
	)
	return results, nil
}
