package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type mockRetriever struct {
	hits       []domain.QueryHit
	err        error
	lastK      int
	lastFilter domain.MetadataFilter
}

func (m *mockRetriever) Query(_ context.Context, _ []float32, k int, filter domain.MetadataFilter) ([]domain.QueryHit, error) {
	m.lastK = k
	m.lastFilter = filter
	return m.hits, m.err
}

func TestSearch(t *testing.T) {
	retriever := &mockRetriever{hits: []domain.QueryHit{
		{ID: "c1", Text: "fire exits", Distance: 0.1, Metadata: domain.ChunkMetadata{Department: "fire"}},
	}}
	svc := New(&mockEmbedder{vec: []float32{1}}, retriever, zap.NewNop())

	results, err := svc.Search(context.Background(), "exit requirements", "", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "c1" || results[0].Distance != 0.1 {
		t.Errorf("result = %+v", results[0])
	}
	if retriever.lastFilter != nil {
		t.Errorf("expected no filter, got %v", retriever.lastFilter)
	}
}

func TestSearch_DepartmentFilter(t *testing.T) {
	retriever := &mockRetriever{}
	svc := New(&mockEmbedder{vec: []float32{1}}, retriever, zap.NewNop())

	_, err := svc.Search(context.Background(), "drainage", "water", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if retriever.lastFilter["department"] != "water" {
		t.Errorf("filter = %v", retriever.lastFilter)
	}
}

func TestSearch_ClampsK(t *testing.T) {
	retriever := &mockRetriever{}
	svc := New(&mockEmbedder{vec: []float32{1}}, retriever, zap.NewNop())

	cases := []struct {
		k    int
		want int
	}{
		{0, 1},
		{-5, 1},
		{7, 7},
		{100, 20},
	}
	for _, tc := range cases {
		if _, err := svc.Search(context.Background(), "q", "", tc.k); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if retriever.lastK != tc.want {
			t.Errorf("k=%d clamped to %d, expected %d", tc.k, retriever.lastK, tc.want)
		}
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{1}}, &mockRetriever{}, zap.NewNop())

	_, err := svc.Search(context.Background(), "   ", "", 5)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearch_EmbedFailure(t *testing.T) {
	embedErr := errors.New("provider down")
	svc := New(&mockEmbedder{err: embedErr}, &mockRetriever{}, zap.NewNop())

	_, err := svc.Search(context.Background(), "q", "", 5)
	if !errors.Is(err, embedErr) {
		t.Errorf("expected embed error, got %v", err)
	}
}
