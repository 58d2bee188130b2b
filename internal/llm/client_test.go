package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	calls    int
	response string
	err      error
}

func (s *stubBackend) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubBackend) name() string { return "stub" }

func TestNewClient_Disabled(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")

	tests := []struct {
		name string
		api  config.APIConfig
	}{
		{"provider none", config.APIConfig{Provider: "none"}},
		{"empty provider", config.APIConfig{}},
		{"openai without key", config.APIConfig{Provider: "openai"}},
		{"gemini without key", config.APIConfig{Provider: "gemini"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.API = tt.api

			client, err := NewClient(context.Background(), cfg)
			require.NoError(t, err)
			assert.False(t, client.IsEnabled())
			assert.Equal(t, ProviderNone, client.GetProvider())

			_, err = client.CompleteJSON(context.Background(), "sys", "user")
			assert.Error(t, err)
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	cfg := config.Default()
	cfg.API.Provider = "carrier-pigeon"

	_, err := NewClient(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewClient_CustomRequiresURLAndModel(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	cfg := config.Default()
	cfg.API.Provider = "custom"

	_, err := NewClient(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewClient_Custom(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	cfg := config.Default()
	cfg.API.Provider = "custom"
	cfg.API.CustomLLMURL = "http://localhost:11434/v1"
	cfg.API.CustomLLMModel = "llama3"

	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, client.IsEnabled())
	assert.Equal(t, ProviderCustom, client.GetProvider())
}

func TestNewClient_EnvOverridesProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	cfg := config.Default()
	cfg.API.Provider = "openai"
	cfg.API.OpenAIKey = "sk-test"

	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
}

func TestCompleteJSON_DelegatesToBackend(t *testing.T) {
	stub := &stubBackend{response: `{"factors": []}`}
	client := newClient(ProviderOpenAI, stub, 0, slog.Default())

	resp, err := client.CompleteJSON(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"factors": []}`, resp)
	assert.Equal(t, 1, stub.calls)
}

func TestCompleteJSON_PropagatesBackendError(t *testing.T) {
	stub := &stubBackend{err: errors.New("503 from provider")}
	client := newClient(ProviderGemini, stub, 0, slog.Default())

	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	assert.EqualError(t, err, "503 from provider")
}

func TestCompleteJSON_RateLimitHonoursContext(t *testing.T) {
	stub := &stubBackend{response: "{}"}
	// One request per minute with a burst of one
	client := newClient(ProviderOpenAI, stub, 1, slog.Default())

	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.CompleteJSON(ctx, "sys", "user")
	assert.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestNilClientIsDisabled(t *testing.T) {
	var client *Client
	assert.False(t, client.IsEnabled())
	assert.Equal(t, ProviderNone, client.GetProvider())
}
