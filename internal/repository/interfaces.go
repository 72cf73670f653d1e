package repository

import (
	"context"

	"github.com/genesis-melodies-search-api/internal/models"
)

// VectorSearchRepository is a nearest-neighbor index scoped by collection key.
// Both backends return hits with cosine similarity scores (higher is better);
// any distance-native backend must convert before returning.
type VectorSearchRepository interface {
	// Query returns the topK nearest records in the named collection.
	// A backend that cannot be reached returns *models.BackendUnavailableError.
	Query(ctx context.Context, collectionKey string, embedding []float64, topK int) ([]models.SearchResult, error)

	// Backend names the implementation for logging and error reporting
	Backend() string
}

// VerseRepository is the canonical verse-text lookup table
type VerseRepository interface {
	// AllVerses returns every row of the verse table. The table is small
	// (Genesis only) and immutable, so callers cache it for the process
	// lifetime.
	AllVerses(ctx context.Context) ([]models.VerseText, error)
}
