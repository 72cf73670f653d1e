package qdrant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/repository"
)

// Ensure VectorSearchRepository implements repository.VectorSearchRepository
var _ repository.VectorSearchRepository = (*VectorSearchRepository)(nil)

// Config holds Qdrant connection settings
type Config struct {
	Host   string
	Port   int
	APIKey string // empty for unauthenticated local instances
	UseTLS bool
}

// VectorSearchRepository implements repository.VectorSearchRepository using
// a remote managed Qdrant cluster. Record metadata travels in the point
// payload, so no secondary lookup is needed after the similarity query.
type VectorSearchRepository struct {
	client *qdrant.Client
}

// NewVectorSearchRepository connects to Qdrant over gRPC
func NewVectorSearchRepository(cfg Config) (*VectorSearchRepository, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &VectorSearchRepository{client: client}, nil
}

// Backend names this implementation
func (r *VectorSearchRepository) Backend() string { return "qdrant" }

// Close releases the underlying gRPC connection
func (r *VectorSearchRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Query performs nearest-neighbor search in the named collection. The
// collections are built with cosine distance, so Qdrant's score is already
// cosine similarity (higher is better) and passes through unchanged.
func (r *VectorSearchRepository) Query(ctx context.Context, collectionKey string, embedding []float64, topK int) ([]models.SearchResult, error) {
	vec := make([]float32, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}

	scored, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionKey,
		Query:          qdrant.NewQuery(vec...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &models.BackendUnavailableError{Backend: r.Backend(), Err: err}
	}

	results := make([]models.SearchResult, 0, len(scored))
	for _, point := range scored {
		hit, err := hitFromPayload(point.Payload)
		if err != nil {
			return nil, err
		}
		hit.Score = float64(point.Score)
		results = append(results, hit)
	}
	return results, nil
}

// hitFromPayload shapes a point payload into a SearchResult
func hitFromPayload(payload map[string]*qdrant.Value) (models.SearchResult, error) {
	hit := models.SearchResult{
		ID:      payload["record_id"].GetStringValue(),
		Title:   payload["title"].GetStringValue(),
		Text:    payload["text"].GetStringValue(),
		Hebrew:  payload["hebrew"].GetStringValue(),
		Strongs: payload["strongs"].GetStringValue(),
	}
	if raw := payload["verses"].GetStringValue(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &hit.Verses); err != nil {
			return hit, fmt.Errorf("decode verses for record %s: %w", hit.ID, err)
		}
	}
	return hit, nil
}

// PointPayload builds the payload stored with each record's point. Verses
// are JSON-encoded to keep the payload schema flat.
func PointPayload(rec models.Record) (map[string]*qdrant.Value, error) {
	versesJSON, err := json.Marshal(rec.Verses)
	if err != nil {
		return nil, fmt.Errorf("encode verses for record %s: %w", rec.ID, err)
	}
	return qdrant.NewValueMap(map[string]any{
		"record_id": rec.ID,
		"title":     rec.Title,
		"text":      rec.Text,
		"hebrew":    rec.Hebrew,
		"strongs":   rec.Strongs,
		"verses":    string(versesJSON),
	}), nil
}
