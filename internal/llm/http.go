package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "food-ordering-agent/internal/common/http"
)

var (
	ErrGenAITimeout = errors.New("GENAI_TIMEOUT")
	ErrGenAIFailed  = errors.New("GENAI_REQUEST_FAILED")
)

// HTTPCompleter posts prompts to the GenAI gateway at <base>/api/ai/<operation>.
type HTTPCompleter struct {
	baseURL string
	client  *commonhttp.Client
}

type genAIResponse struct {
	Text string `json:"text"`
}

func NewHTTPCompleter(baseURL, apiKey string, timeout time.Duration, maxRetries int) *HTTPCompleter {
	client := commonhttp.NewClient(timeout, maxRetries)
	if apiKey != "" {
		client.WithHeader("Authorization", "Bearer "+apiKey)
	}
	return &HTTPCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *HTTPCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var resp genAIResponse
	err := c.client.PostJSON(ctx, c.baseURL+"/api/ai/"+req.Operation, req, &resp)
	if err != nil {
		if errors.Is(err, commonhttp.ErrRequestTimeout) {
			return "", fmt.Errorf("%w: %w", ErrGenAITimeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrGenAIFailed, err)
	}
	return resp.Text, nil
}
