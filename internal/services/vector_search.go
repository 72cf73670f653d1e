package services

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/repository"
)

const defaultTopK = 10

// QueryEmbedder turns search text into a model-specific embedding vector.
// Satisfied by pkg/schema/services.EmbeddingsService.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, model, text string) ([]float64, error)
}

// SearchService runs the search pipeline: validate the (model, record level)
// pair, resolve verses to search text, embed, query the vector backend
// scoped to the collection, and normalize the hits.
type SearchService struct {
	primary  repository.VectorSearchRepository
	fallback repository.VectorSearchRepository // optional alternate backend
	resolver *VerseResolver
	embedder QueryEmbedder
}

// NewSearchService creates the search pipeline. fallback may be nil.
func NewSearchService(
	primary repository.VectorSearchRepository,
	fallback repository.VectorSearchRepository,
	resolver *VerseResolver,
	embedder QueryEmbedder,
) *SearchService {
	return &SearchService{
		primary:  primary,
		fallback: fallback,
		resolver: resolver,
		embedder: embedder,
	}
}

// Search executes one search request end to end
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := ValidateCombination(req.ModelName, req.RecordLevel); err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	if len(req.Verses) == 0 {
		return nil, models.ErrEmptyQuery
	}

	searchText, err := s.resolver.Resolve(ctx, req.Verses, req.ModelName.Language())
	if err != nil {
		return nil, err
	}
	if searchText == "" {
		return nil, models.ErrEmptyQuery
	}

	// The English rendering is echoed back for display regardless of which
	// language was embedded.
	englishText := searchText
	if req.ModelName.Language() != models.LanguageEnglish {
		englishText, err = s.resolver.Resolve(ctx, req.Verses, models.LanguageEnglish)
		if err != nil {
			return nil, err
		}
	}
	var englishOut *string
	if englishText != "" {
		englishOut = &englishText
	}

	embedding, err := s.embedder.EmbedQuery(ctx, string(req.ModelName), searchText)
	if err != nil {
		var unavailable *models.EmbeddingUnavailableError
		if !errors.As(err, &unavailable) {
			err = &models.EmbeddingUnavailableError{Model: req.ModelName, Err: err}
		}
		return nil, err
	}

	hits, err := s.query(ctx, models.CollectionKey(req.ModelName, req.RecordLevel), embedding, topK)
	if err != nil {
		return nil, err
	}

	return &models.SearchResponse{
		EnglishSearchText: englishOut,
		Results:           normalizeHits(hits, req.RecordLevel, topK),
	}, nil
}

// query asks the primary backend and falls back once to the alternate
// backend if the primary is unreachable
func (s *SearchService) query(ctx context.Context, collectionKey string, embedding []float64, topK int) ([]models.SearchResult, error) {
	hits, err := s.primary.Query(ctx, collectionKey, embedding, topK)
	if err == nil {
		return hits, nil
	}

	var unavailable *models.BackendUnavailableError
	if s.fallback == nil || !errors.As(err, &unavailable) {
		return nil, err
	}

	log.Printf("Backend %s unavailable (%v), retrying on %s", s.primary.Backend(), err, s.fallback.Backend())
	return s.fallback.Query(ctx, collectionKey, embedding, topK)
}

// normalizeHits sorts hits descending by similarity (stable), truncates to
// topK, and drops verse-range metadata at the verse record level where the
// range is just the record itself.
func normalizeHits(hits []models.SearchResult, level models.RecordLevel, topK int) []models.SearchResult {
	out := make([]models.SearchResult, len(hits))
	copy(out, hits)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}

	if level == models.RecordLevelVerse {
		for i := range out {
			out[i].Verses = nil
		}
	}
	return out
}
