package services

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/genesis-melodies-search-api/pkg/schema/config"
)

const vertexBatchLimit = 250

// VertexEmbedder implements Embedder using a Google Cloud Vertex AI text
// embedding model. Used as the provider for English-language models when
// the self-hosted embedding service is not deployed.
type VertexEmbedder struct {
	client   *aiplatform.PredictionClient
	endpoint string
}

// NewVertexEmbedder creates a Vertex AI embedder from config
func NewVertexEmbedder(ctx context.Context, cfg *config.Config) (*VertexEmbedder, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for Vertex AI embeddings")
	}

	clientEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.GCPLocation)
	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(clientEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	endpoint := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s",
		cfg.GCPProjectID, cfg.GCPLocation, cfg.VertexModel)

	return &VertexEmbedder{
		client:   client,
		endpoint: endpoint,
	}, nil
}

// Close closes the Vertex AI client
func (e *VertexEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Embed generates an embedding for a single text
func (e *VertexEmbedder) Embed(ctx context.Context, text string, taskType TaskType) ([]float64, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting into
// Vertex-sized batches as needed
func (e *VertexEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var all [][]float64
	for i := 0; i < len(texts); i += vertexBatchLimit {
		end := min(i+vertexBatchLimit, len(texts))
		batch, err := e.embedBatchInternal(ctx, texts[i:end], taskType)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (e *VertexEmbedder) embedBatchInternal(ctx context.Context, texts []string, taskType TaskType) ([][]float64, error) {
	instances := make([]*structpb.Value, len(texts))
	for i, text := range texts {
		instance, err := structpb.NewStruct(map[string]interface{}{
			"content":   text,
			"task_type": string(taskType),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create instance: %w", err)
		}
		instances[i] = structpb.NewStructValue(instance)
	}

	resp, err := e.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  e.endpoint,
		Instances: instances,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex AI prediction failed: %w", err)
	}

	embeddings := make([][]float64, len(resp.Predictions))
	for i, prediction := range resp.Predictions {
		embedding, err := parsePrediction(prediction)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// parsePrediction extracts embeddings.values from a Vertex prediction struct
func parsePrediction(prediction *structpb.Value) ([]float64, error) {
	predStruct := prediction.GetStructValue()
	if predStruct == nil {
		return nil, fmt.Errorf("unexpected prediction format")
	}

	embStruct := predStruct.Fields["embeddings"].GetStructValue()
	if embStruct == nil {
		return nil, fmt.Errorf("no embeddings field in prediction")
	}

	valuesList := embStruct.Fields["values"].GetListValue()
	if valuesList == nil {
		return nil, fmt.Errorf("no values field in embeddings")
	}

	embedding := make([]float64, len(valuesList.Values))
	for j, v := range valuesList.Values {
		embedding[j] = v.GetNumberValue()
	}
	return embedding, nil
}
