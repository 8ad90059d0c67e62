package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "food-ordering-agent/internal/common/http"

	"golang.org/x/sync/errgroup"
)

// HTTPEngine calls an Ollama-compatible /api/embeddings endpoint.
type HTTPEngine struct {
	endpoint    string
	model       string
	client      *commonhttp.Client
	concurrency int
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewHTTPEngine(endpoint, model string, timeout time.Duration, concurrency int) *HTTPEngine {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEngine{
		endpoint:    strings.TrimRight(endpoint, "/"),
		model:       model,
		client:      commonhttp.NewClient(timeout, 2),
		concurrency: concurrency,
	}
}

func (e *HTTPEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	if err := e.client.PostJSON(ctx, e.endpoint+"/api/embeddings", embedRequest{Model: e.model, Prompt: text}, &resp); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return resp.Embedding, nil
}

// EmbedBatch fans out single requests with bounded concurrency; the first error cancels the rest.
func (e *HTTPEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("failed to embed text %d: %w", i, err)
			}
			embeddings[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}
