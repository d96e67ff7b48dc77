package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/philippgille/chromem-go"
)

const (
	// DefaultEmbeddingModel is the sentence-transformers model the prebuilt
	// store was embedded with. Queries must use the same model.
	DefaultEmbeddingModel = "sentence-transformers/all-mpnet-base-v2"

	hfInferenceBaseURL = "https://api-inference.huggingface.co"
)

// NewEmbeddingFunc selects an embedding provider by name. The returned
// function is handed to the document store, which uses it identically for
// ingestion and query embedding.
func NewEmbeddingFunc(provider, model, apiKey string) (chromem.EmbeddingFunc, error) {
	switch provider {
	case "", "hf", "huggingface":
		if model == "" {
			model = DefaultEmbeddingModel
		}
		return NewHuggingFaceEmbeddingFunc(apiKey, model), nil
	case "openai":
		return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// NewHuggingFaceEmbeddingFunc returns an EmbeddingFunc backed by the Hugging
// Face Inference API's feature-extraction pipeline.
func NewHuggingFaceEmbeddingFunc(token, model string) chromem.EmbeddingFunc {
	return newHuggingFaceEmbeddingFunc(hfInferenceBaseURL, token, model, &http.Client{Timeout: 30 * time.Second})
}

func newHuggingFaceEmbeddingFunc(baseURL, token, model string, client *http.Client) chromem.EmbeddingFunc {
	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", baseURL, model)

	return func(ctx context.Context, text string) ([]float32, error) {
		payload, err := json.Marshal(map[string]interface{}{
			"inputs": []string{text},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode embedding request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedding response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, truncateForLog(string(body), 200))
		}

		var vectors [][]float32
		if err := json.Unmarshal(body, &vectors); err != nil {
			return nil, fmt.Errorf("failed to decode embedding response: %w", err)
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return nil, fmt.Errorf("no embedding returned for input")
		}

		return vectors[0], nil
	}
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
