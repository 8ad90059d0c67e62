package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearSecrets(t *testing.T) {
	for _, key := range []string{"LLM_API_KEY", "GEMINI_API_KEY", "EMBEDDING_API_KEY", "DB_USER", "DB_PASSWORD", "REDIS_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearSecrets(t)
	path := writeConfig(t, `
llm:
  base_url: http://genai:9000
embedding:
  base_url: http://ollama:11434
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "user_id", cfg.Server.CookieName)
	assert.Equal(t, DefaultCookieMaxAge, cfg.Server.CookieMaxAge)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "file", cfg.Catalog.Backend)
	assert.Equal(t, DefaultSearchRadius, cfg.Catalog.SearchRadius)
	assert.Equal(t, DefaultTopK, cfg.Agent.TopK)
	assert.Equal(t, "genai", cfg.LLM.Provider)
	assert.Equal(t, "http", cfg.Embedding.Provider)
	assert.Equal(t, "order-fulfillment", cfg.Camunda.FulfillmentProcess)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, GetDuration(cfg.LLM.Timeout))
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TEST_LLM_URL", "http://llm.internal")
	t.Setenv("TEST_REDIS_ADDR", "redis:6379")
	path := writeConfig(t, `
session:
  backend: redis
database:
  redis:
    address: ${TEST_REDIS_ADDR}
llm:
  base_url: ${TEST_LLM_URL}
embedding:
  base_url: http://ollama:11434
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://llm.internal", cfg.LLM.BaseURL)
	assert.Equal(t, "redis:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_SecretsFromEnvironment(t *testing.T) {
	clearSecrets(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	path := writeConfig(t, `
llm:
  provider: gemini
embedding:
  provider: gemini
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "g-key", cfg.Embedding.APIKey)
}

func TestValidateConfig(t *testing.T) {
	clearSecrets(t)
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "redis sessions need an address",
			body:    "session: {backend: redis}\nllm: {base_url: x}\nembedding: {base_url: y}\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "unknown catalog backend",
			body:    "catalog: {backend: mongo}\nllm: {base_url: x}\nembedding: {base_url: y}\n",
			wantErr: "catalog.backend",
		},
		{
			name:    "postgres orders need a host",
			body:    "orders: {backend: postgres}\nllm: {base_url: x}\nembedding: {base_url: y}\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "genai provider needs a base url",
			body:    "embedding: {base_url: y}\n",
			wantErr: "llm.base_url",
		},
		{
			name:    "camunda needs a broker",
			body:    "camunda: {enabled: true}\nllm: {base_url: x}\nembedding: {base_url: y}\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "sns needs a topic",
			body:    "notifications: {sns: {enabled: true}}\nllm: {base_url: x}\nembedding: {base_url: y}\n",
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
