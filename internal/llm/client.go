package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rohankatakam/slatewise/internal/config"
	"golang.org/x/time/rate"
)

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderCustom Provider = "custom" // OpenAI-compatible endpoint
	ProviderNone   Provider = "none"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"

	temperature     = 0.1
	maxOutputTokens = 2000
)

// backend is one provider's JSON completion call
type backend interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	name() string
}

// Client provides a multi-provider JSON completion interface.
// A disabled client (provider "none" or no key) is still usable: every
// call fails fast and callers fall back to their offline path.
type Client struct {
	provider Provider
	backend  backend
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient creates an LLM client from the api section of the config.
// Provider priority: LLM_PROVIDER env var, then config.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	logger := slog.Default().With("component", "llm")

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = cfg.API.Provider
	}

	var (
		b   backend
		err error
	)
	switch Provider(provider) {
	case "", ProviderNone:
		logger.Info("llm provider disabled, heuristic scoring only")
		return disabledClient(logger), nil
	case ProviderOpenAI:
		if cfg.API.OpenAIKey == "" {
			logger.Warn("openai selected but no api key configured")
			logger.Info("run 'slatewise configure' or set OPENAI_API_KEY")
			return disabledClient(logger), nil
		}
		b = newOpenAIBackend(cfg.API.OpenAIKey, cfg.API.OpenAIModel)
	case ProviderGemini:
		if cfg.API.GeminiKey == "" {
			logger.Warn("gemini selected but no api key configured")
			logger.Info("run 'slatewise configure' or set GEMINI_API_KEY")
			return disabledClient(logger), nil
		}
		b, err = newGeminiBackend(ctx, cfg.API.GeminiKey, cfg.API.GeminiModel)
	case ProviderCustom:
		b, err = newCustomBackend(cfg.API.CustomLLMURL, cfg.API.CustomLLMKey, cfg.API.CustomLLMModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	c := newClient(Provider(provider), b, cfg.API.RequestsPerMin, logger)
	logger.Info("llm client initialized", "provider", provider, "model", b.name(), "requests_per_min", cfg.API.RequestsPerMin)
	return c, nil
}

func newClient(provider Provider, b backend, requestsPerMin int, logger *slog.Logger) *Client {
	return &Client{
		provider: provider,
		backend:  b,
		limiter:  newLimiter(requestsPerMin),
		logger:   logger,
	}
}

func disabledClient(logger *slog.Logger) *Client {
	return &Client{provider: ProviderNone, logger: logger}
}

// newLimiter returns a token bucket refilling requestsPerMin per minute.
// Zero or negative means unlimited.
func newLimiter(requestsPerMin int) *rate.Limiter {
	if requestsPerMin <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := requestsPerMin / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMin)), burst)
}

// IsEnabled returns true if an LLM backend is configured and ready
func (c *Client) IsEnabled() bool {
	return c != nil && c.backend != nil
}

// GetProvider returns the active LLM provider
func (c *Client) GetProvider() Provider {
	if c == nil {
		return ProviderNone
	}
	return c.provider
}

// CompleteJSON sends a prompt to the configured provider and returns the
// raw JSON text. The call blocks on the local rate limiter first.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("llm client not enabled (check api.provider and API key)")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.backend.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		c.logger.Warn("llm completion failed", "provider", c.provider, "error", err)
		return "", err
	}

	c.logger.Debug("llm completion", "provider", c.provider, "duration", time.Since(start))
	return resp, nil
}
