package llm

import (
	"context"
	"fmt"
	"log/slog"

	oaicompat "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sashabaranov/go-openai"
)

// openAIBackend talks to api.openai.com with JSON response mode
type openAIBackend struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func newOpenAIBackend(apiKey, model string) *openAIBackend {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIBackend{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: slog.Default().With("component", "openai", "model", model),
	}
}

func (b *openAIBackend) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	content := resp.Choices[0].Message.Content
	b.logger.Debug("openai json completion",
		"prompt_length", len(userPrompt),
		"response_length", len(content),
		"tokens_used", resp.Usage.TotalTokens,
	)
	return content, nil
}

func (b *openAIBackend) name() string { return b.model }

// customBackend targets any OpenAI-compatible chat completions endpoint
// (vLLM, Ollama, LiteLLM). JSON mode is requested through the prompt only
// because not every compatible server implements response_format.
type customBackend struct {
	client oaicompat.Client
	model  string
	logger *slog.Logger
}

func newCustomBackend(baseURL, apiKey, model string) (*customBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("custom llm url is required")
	}
	if model == "" {
		return nil, fmt.Errorf("custom llm model is required")
	}

	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &customBackend{
		client: oaicompat.NewClient(opts...),
		model:  model,
		logger: slog.Default().With("component", "custom_llm", "model", model, "base_url", baseURL),
	}, nil
}

func (b *customBackend) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	completion, err := b.client.Chat.Completions.New(ctx, oaicompat.ChatCompletionNewParams{
		Model: oaicompat.ChatModel(b.model),
		Messages: []oaicompat.ChatCompletionMessageParamUnion{
			oaicompat.SystemMessage(systemPrompt),
			oaicompat.UserMessage(userPrompt),
		},
		Temperature: oaicompat.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("custom llm completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("custom llm returned no choices")
	}

	content := completion.Choices[0].Message.Content
	b.logger.Debug("custom llm json completion",
		"prompt_length", len(userPrompt),
		"response_length", len(content),
	)
	return content, nil
}

func (b *customBackend) name() string { return b.model }
