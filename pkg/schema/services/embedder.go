package services

import "context"

// TaskType distinguishes query-side from document-side embeddings for
// providers that condition on it
type TaskType string

const (
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// Embedder is a model-specific text -> fixed-length vector function.
// Tokenization limits and pooling belong to the provider; text beyond the
// model's maximum token length is truncated by the model's own policy and
// the information loss is expected, not an error.
type Embedder interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string, taskType TaskType) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float64, error)
}
