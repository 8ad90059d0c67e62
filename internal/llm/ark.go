package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/schema"
)

// ArkCompleter generates text with a Volcengine Ark chat model through eino.
type ArkCompleter struct {
	chatModel *ark.ChatModel
}

func NewArkCompleter(ctx context.Context, baseURL, apiKey, model string) (*ArkCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ark API key is required")
	}
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
	})
	if err != nil {
		return nil, fmt.Errorf("init ark chat model: %w", err)
	}
	return &ArkCompleter{chatModel: cm}, nil
}

func (a *ArkCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msg, err := a.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.Prompt),
	})
	if err != nil {
		return "", fmt.Errorf("ark generate failed: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: ark returned no message", ErrEmptyCompletion)
	}
	return msg.Content, nil
}
