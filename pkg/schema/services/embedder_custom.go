package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Transient provider failures are retried exactly once after a short fixed
// wait, then propagated to the caller.
const (
	embedRetryMax  = 1
	embedRetryWait = 500 * time.Millisecond
)

// CustomEmbedder implements Embedder against the embedding HTTP service that
// hosts the sentence-transformer and BERiT models. The service owns
// tokenization and truncates input to each model's maximum sequence length.
type CustomEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewCustomEmbedder creates an embedder for one model served by the
// embedding service at baseURL
func NewCustomEmbedder(baseURL, model string) *CustomEmbedder {
	rc := retryablehttp.NewClient()
	rc.RetryMax = embedRetryMax
	rc.RetryWaitMin = embedRetryWait
	rc.RetryWaitMax = embedRetryWait
	rc.Logger = nil

	return &CustomEmbedder{
		baseURL:    baseURL,
		model:      model,
		httpClient: rc.StandardClient(),
	}
}

var taskTypeToInstruction = map[TaskType]string{
	TaskTypeQuery:    "Represent the passage for retrieving related Bible passages: ",
	TaskTypeDocument: "Represent the Bible passage for retrieval: ",
}

type customEmbeddingRequest struct {
	Model       string `json:"model"`
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

type customEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type customBatchEmbeddingRequest struct {
	Model       string   `json:"model"`
	Texts       []string `json:"texts"`
	Instruction string   `json:"instruction"`
}

type customBatchEmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed generates an embedding for a single text
func (e *CustomEmbedder) Embed(ctx context.Context, text string, taskType TaskType) ([]float64, error) {
	reqBody := customEmbeddingRequest{
		Model:       e.model,
		Text:        text,
		Instruction: instructionFor(taskType),
	}

	var embResp customEmbeddingResponse
	if err := e.post(ctx, "/embed", reqBody, &embResp); err != nil {
		return nil, err
	}
	return embResp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *CustomEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	reqBody := customBatchEmbeddingRequest{
		Model:       e.model,
		Texts:       texts,
		Instruction: instructionFor(taskType),
	}

	var batchResp customBatchEmbeddingResponse
	if err := e.post(ctx, "/embed/batch", reqBody, &batchResp); err != nil {
		return nil, err
	}
	return batchResp.Embeddings, nil
}

func (e *CustomEmbedder) post(ctx context.Context, path string, reqBody, out any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func instructionFor(taskType TaskType) string {
	if instruction, ok := taskTypeToInstruction[taskType]; ok {
		return instruction
	}
	return taskTypeToInstruction[TaskTypeDocument]
}
