package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/repository"
)

// VectorSearchRepository implements repository.VectorSearchRepository on
// PostgreSQL with pgvector. This is the self-hosted backend; collections are
// rows of the records table partitioned by collection_key.
type VectorSearchRepository struct {
	db *sqlx.DB
}

// NewVectorSearchRepository creates a pgvector-backed vector search repository
func NewVectorSearchRepository(db *sqlx.DB) repository.VectorSearchRepository {
	return &VectorSearchRepository{db: db}
}

// Backend names this implementation
func (r *VectorSearchRepository) Backend() string { return "pgvector" }

// Query performs cosine similarity search within one collection. pgvector's
// <=> operator is cosine distance, so the score is reported as 1 - distance
// to keep the higher-is-better convention.
func (r *VectorSearchRepository) Query(ctx context.Context, collectionKey string, embedding []float64, topK int) ([]models.SearchResult, error) {
	vec := pgvector.NewVector(float32Slice(embedding))

	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, title, english_text, hebrew_text, strongs, verses,
		       1 - (embedding <=> $1::vector) AS score
		FROM records
		WHERE collection_key = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, vec, collectionKey, topK)
	if err != nil {
		return nil, &models.BackendUnavailableError{Backend: r.Backend(), Err: err}
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var (
			hit       models.SearchResult
			versesRaw []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Text, &hit.Hebrew, &hit.Strongs, &versesRaw, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan record hit: %w", err)
		}
		if len(versesRaw) > 0 {
			if err := json.Unmarshal(versesRaw, &hit.Verses); err != nil {
				return nil, fmt.Errorf("decode verses for record %s: %w", hit.ID, err)
			}
		}
		results = append(results, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record hits: %w", err)
	}

	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

// float32Slice converts []float64 to []float32 for pgvector
func float32Slice(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
