package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReply(t *testing.T) {
	const literal = "Please provide your address."

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{name: "quoted after arrow", candidate: `Please provide your address. -> "Could you share your delivery address?"`, want: "Could you share your delivery address?"},
		{name: "last arrow wins", candidate: `a -> "First one." -> 'Second one!'`, want: "Second one!"},
		{name: "first quoted sentence", candidate: `"Where should we deliver?" or "somewhere"`, want: "Where should we deliver?"},
		{name: "multiple sentences in one quote", candidate: `"Thanks. Where to?"`, want: "Thanks. Where to?"},
		{name: "escaped quote is ignored", candidate: `\"Not this one."`, want: literal},
		{name: "no quotes", candidate: "Sure, give me your address", want: literal},
		{name: "quote without sentence end", candidate: `"no punctuation"`, want: literal},
		{name: "empty", candidate: "", want: literal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractReply(tt.candidate, literal))
		})
	}
}

func TestPrompts(t *testing.T) {
	p, err := IntentPrompt("12 Baker St", "\nUser address is provided.\n")
	require.NoError(t, err)
	assert.Contains(t, p, "Use the following pieces of context to determine user's intent:\n\nUser address is provided.")
	assert.Contains(t, p, "based on this user's input:'12 Baker St'")

	p, err = BudgetPrompt("around 25 bucks")
	require.NoError(t, err)
	assert.Contains(t, p, "round up to the next number dividable by 10")
	assert.Contains(t, p, "Input Text:\naround 25 bucks\nAnswer:")

	p, err = RephrasePrompt("Please provide your budget.")
	require.NoError(t, err)
	assert.Contains(t, p, "more proffesional way:'Please provide your budget.'")

	p, err = AnswerPrompt("what is the weather?")
	require.NoError(t, err)
	assert.Contains(t, p, "Question:'what is the weather?'")
}

type stubCompleter struct {
	reply string
	err   error
	reqs  []CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	return s.reply, s.err
}

func TestPromptService(t *testing.T) {
	ctx := context.Background()

	t.Run("operations are routed", func(t *testing.T) {
		stub := &stubCompleter{reply: "  the user wants pizza  "}
		svc := NewPromptService(stub, logger.NewTestLogger(t))

		out, err := svc.DescribeIntent(ctx, "pizza please", "\nctx\n")
		require.NoError(t, err)
		assert.Equal(t, "the user wants pizza", out)

		_, err = svc.SummarizeBudget(ctx, "20 bucks")
		require.NoError(t, err)
		_, err = svc.AnswerGeneralQuestion(ctx, "hi")
		require.NoError(t, err)

		require.Len(t, stub.reqs, 3)
		assert.Equal(t, OpDescribeIntent, stub.reqs[0].Operation)
		assert.Equal(t, "pizza please", stub.reqs[0].Inputs["question"])
		assert.Equal(t, OpSummarizeBudget, stub.reqs[1].Operation)
		assert.Equal(t, OpAnswer, stub.reqs[2].Operation)
		assert.Equal(t, systemPrompt, stub.reqs[0].System)
	})

	t.Run("rephrase extracts quoted sentence", func(t *testing.T) {
		svc := NewPromptService(&stubCompleter{reply: `-> "Kindly share your budget."`}, logger.NewNoOpLogger())
		out, err := svc.Rephrase(ctx, "Please provide your budget.")
		require.NoError(t, err)
		assert.Equal(t, "Kindly share your budget.", out)
	})

	t.Run("rephrase without quotes keeps literal", func(t *testing.T) {
		svc := NewPromptService(&stubCompleter{reply: "whatever"}, logger.NewNoOpLogger())
		out, err := svc.Rephrase(ctx, "Please provide your budget.")
		require.NoError(t, err)
		assert.Equal(t, "Please provide your budget.", out)
	})

	t.Run("empty completion is an error", func(t *testing.T) {
		svc := NewPromptService(&stubCompleter{reply: "   "}, logger.NewNoOpLogger())
		_, err := svc.SummarizeBudget(ctx, "x")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("completer error is returned", func(t *testing.T) {
		svc := NewPromptService(&stubCompleter{err: fmt.Errorf("boom")}, logger.NewNoOpLogger())
		_, err := svc.DescribeIntent(ctx, "x", "")
		assert.ErrorContains(t, err, "boom")
	})
}

func TestHTTPCompleter(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		wantText string
		wantErr  error
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/ai/summarize-budget", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				var req CompletionRequest
				if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
					assert.Equal(t, OpSummarizeBudget, req.Operation)
				}
				json.NewEncoder(w).Encode(map[string]string{"text": "20 dollars"})
			},
			timeout:  time.Second,
			wantText: "20 dollars",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			timeout: time.Second,
			wantErr: ErrGenAIFailed,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			},
			timeout: 20 * time.Millisecond,
			wantErr: ErrGenAITimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewHTTPCompleter(server.URL+"/", "secret", 5*time.Second, 1)
			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()

			text, err := c.Complete(ctx, CompletionRequest{Operation: OpSummarizeBudget, Prompt: "p"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErr == ErrGenAITimeout {
					assert.ErrorIs(t, err, context.DeadlineExceeded)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	svc, err := New(ctx, config.LLMConfig{Provider: "genai", BaseURL: "http://localhost:1", Timeout: 1000}, log)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = New(ctx, config.LLMConfig{Provider: "llamacpp"}, log)
	assert.ErrorContains(t, err, "unsupported llm provider")

	_, err = New(ctx, config.LLMConfig{Provider: "gemini"}, log)
	assert.ErrorContains(t, err, "API key is required")

	_, err = New(ctx, config.LLMConfig{Provider: "ark"}, log)
	assert.ErrorContains(t, err, "API key is required")
}
