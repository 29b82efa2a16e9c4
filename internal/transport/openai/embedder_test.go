package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func embeddingServer(t *testing.T, vectors [][]float32, capture *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if capture != nil {
			*capture = append(*capture, req.Input)
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		for i := range req.Input {
			vec := vectors[i%len(vectors)]
			resp.Data = append(resp.Data, struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Object: "embedding", Embedding: vec, Index: i})
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-model",
		Dimensions: 3,
		Logger:     zap.NewNop(),
	})
}

func TestEmbed(t *testing.T) {
	server := embeddingServer(t, [][]float32{{0.1, 0.2, 0.3}}, nil)
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	result, err := emb.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("dims = %d", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d", result.TotalTokens)
	}
}

func TestEmbed_BlankInput(t *testing.T) {
	emb := newTestEmbedder("http://unused.invalid")

	_, err := emb.Embed(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "model not loaded"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	_, err := emb.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestBatchEmbed_BlankPositionsGetZeroVectors(t *testing.T) {
	var captured [][]string
	server := embeddingServer(t, [][]float32{{1, 1, 1}}, &captured)
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	result, err := emb.BatchEmbed(context.Background(), []string{"first", "  ", "third"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}

	if len(result.Embeddings) != 3 {
		t.Fatalf("output length = %d, must match input length", len(result.Embeddings))
	}

	// Only non-blank texts go over the wire.
	if len(captured) != 1 || len(captured[0]) != 2 {
		t.Fatalf("wire inputs = %v", captured)
	}

	// The blank slot gets a zero vector of the model dimension.
	zero := result.Embeddings[1]
	if len(zero) != 3 {
		t.Fatalf("zero vector dims = %d", len(zero))
	}
	for i, v := range zero {
		if v != 0 {
			t.Errorf("zero[%d] = %f", i, v)
		}
	}
	if result.Embeddings[0][0] != 1 || result.Embeddings[2][0] != 1 {
		t.Errorf("non-blank positions lost their vectors: %v", result.Embeddings)
	}
}

func TestBatchEmbed_AllBlank(t *testing.T) {
	emb := newTestEmbedder("http://unused.invalid")

	_, err := emb.BatchEmbed(context.Background(), []string{"", "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBatchEmbed_ShortResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data, struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{Object: "embedding", Embedding: []float32{1, 2, 3}, Index: 0})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	_, err := emb.BatchEmbed(context.Background(), []string{"one", "two"})
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable for short response, got %v", err)
	}
}
