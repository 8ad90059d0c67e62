// Package llm wraps the text-generation backends the agent talks to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/logger"
)

var (
	ErrEmptyCompletion = errors.New("EMPTY_COMPLETION")
	ErrPromptRender    = errors.New("PROMPT_RENDER_FAILED")
)

// Operation names, also used as endpoint suffixes by the HTTP backend.
const (
	OpDescribeIntent  = "describe-intent"
	OpAnswer          = "answer"
	OpSummarizeBudget = "summarize-budget"
	OpRephrase        = "rephrase"
)

// Service is the text collaborator used by the conversation engine.
type Service interface {
	DescribeIntent(ctx context.Context, utterance, sessionContext string) (string, error)
	AnswerGeneralQuestion(ctx context.Context, utterance string) (string, error)
	SummarizeBudget(ctx context.Context, utterance string) (string, error)
	Rephrase(ctx context.Context, text string) (string, error)
}

// Completer sends one rendered prompt to a model and returns the raw completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Operation string            `json:"operation"`
	System    string            `json:"system"`
	Prompt    string            `json:"prompt"`
	Inputs    map[string]string `json:"inputs,omitempty"`
}

// PromptService renders the agent's prompt templates and hands them to a Completer.
type PromptService struct {
	completer Completer
	logger    logger.Logger
}

func NewPromptService(completer Completer, log logger.Logger) *PromptService {
	return &PromptService{
		completer: completer,
		logger:    logger.Component(log, "llm"),
	}
}

// New builds the configured backend.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*PromptService, error) {
	var (
		completer Completer
		err       error
	)
	timeout := config.GetDuration(cfg.Timeout)

	switch cfg.Provider {
	case "genai":
		completer = NewHTTPCompleter(cfg.BaseURL, cfg.APIKey, timeout, cfg.MaxRetries)
	case "gemini":
		completer, err = NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model)
	case "ark":
		completer, err = NewArkCompleter(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewPromptService(completer, log), nil
}

func (s *PromptService) complete(ctx context.Context, op, prompt string, inputs map[string]string) (string, error) {
	out, err := s.completer.Complete(ctx, CompletionRequest{
		Operation: op,
		System:    systemPrompt,
		Prompt:    prompt,
		Inputs:    inputs,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyCompletion, op)
	}
	s.logger.Debug("completion received", map[string]interface{}{
		"operation": op,
		"length":    len(out),
	})
	return out, nil
}

func (s *PromptService) DescribeIntent(ctx context.Context, utterance, sessionContext string) (string, error) {
	prompt, err := IntentPrompt(utterance, sessionContext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptRender, err)
	}
	return s.complete(ctx, OpDescribeIntent, prompt, map[string]string{
		"question": utterance,
		"context":  sessionContext,
	})
}

func (s *PromptService) AnswerGeneralQuestion(ctx context.Context, utterance string) (string, error) {
	prompt, err := AnswerPrompt(utterance)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptRender, err)
	}
	return s.complete(ctx, OpAnswer, prompt, map[string]string{"question": utterance})
}

func (s *PromptService) SummarizeBudget(ctx context.Context, utterance string) (string, error) {
	prompt, err := BudgetPrompt(utterance)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptRender, err)
	}
	return s.complete(ctx, OpSummarizeBudget, prompt, map[string]string{"input_text": utterance})
}

// Rephrase returns a friendlier version of text, or text itself when the completion
// carries no usable quoted sentence.
func (s *PromptService) Rephrase(ctx context.Context, text string) (string, error) {
	prompt, err := RephrasePrompt(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptRender, err)
	}
	candidate, err := s.complete(ctx, OpRephrase, prompt, map[string]string{"answer": text})
	if err != nil {
		return "", err
	}
	reply := ExtractReply(candidate, text)
	if reply == text {
		s.logger.Warn("could not rephrase answer", map[string]interface{}{
			"answer":    text,
			"candidate": candidate,
		})
	}
	return reply, nil
}
