package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// geminiBackend calls the Gemini API with native JSON output
type geminiBackend struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func newGeminiBackend(ctx context.Context, apiKey, model string) (*geminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiBackend{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "gemini", "model", model),
	}, nil
}

func (b *geminiBackend) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temp := float32(temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.Text(systemPrompt)[0]
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini json completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("gemini blocked the response (safety)")
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content parts")
	}

	// Long JSON bodies can arrive split across parts
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()

	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		b.logger.Warn("gemini response truncated at token limit", "response_length", len(text))
	}

	attrs := []any{"prompt_length", len(userPrompt), "response_length", len(text)}
	if resp.UsageMetadata != nil {
		attrs = append(attrs, "tokens_used", resp.UsageMetadata.TotalTokenCount)
	}
	b.logger.Debug("gemini json completion", attrs...)
	return text, nil
}

func (b *geminiBackend) name() string { return b.model }
