package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/genesis-melodies-search-api/pkg/schema/config"
)

// EmbeddingsService routes embedding calls to per-model embedders. Each
// model's embedder is created on first use and cached for the process
// lifetime; the mutex makes lazy initialization safe under concurrent
// requests. Cold-start latency on the first request per model is expected.
type EmbeddingsService struct {
	mu        sync.Mutex
	embedders map[string]Embedder
}

var (
	embeddingsService *EmbeddingsService
	embeddingsOnce    sync.Once
)

// GetEmbeddingsService returns the singleton embeddings service
func GetEmbeddingsService() *EmbeddingsService {
	embeddingsOnce.Do(func() {
		embeddingsService = &EmbeddingsService{
			embedders: make(map[string]Embedder),
		}
	})
	return embeddingsService
}

func (s *EmbeddingsService) embedderFor(ctx context.Context, model string) (Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedder, ok := s.embedders[model]; ok {
		return embedder, nil
	}

	cfg := config.GetConfig()

	var (
		embedder Embedder
		err      error
	)
	switch cfg.EmbeddingProvider {
	case "vertex":
		embedder, err = NewVertexEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vertex AI embedder: %w", err)
		}
	default:
		embedder = NewCustomEmbedder(cfg.EmbeddingServiceURL, model)
	}

	s.embedders[model] = embedder
	return embedder, nil
}

// EmbedQuery embeds search text with the named model's query task type
func (s *EmbeddingsService) EmbedQuery(ctx context.Context, model, query string) ([]float64, error) {
	embedder, err := s.embedderFor(ctx, model)
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, query, TaskTypeQuery)
}

// EmbedDocuments embeds record texts with the named model's document task
// type; used by the offline indexer
func (s *EmbeddingsService) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float64, error) {
	embedder, err := s.embedderFor(ctx, model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedBatch(ctx, texts, TaskTypeDocument)
}
