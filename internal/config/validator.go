package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/slatewise/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextServe - the HTTP server needs storage and a valid listen address
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextAnalyze - analysis needs storage; the LLM is optional (heuristic fallback)
	ValidationContextAnalyze ValidationContext = "analyze"
	// ValidationContextResearch - evidence gathering needs an enabled LLM provider
	ValidationContextResearch ValidationContext = "research"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context with auto-detected mode
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	return c.ValidateWithMode(ctx, DetectMode())
}

// ValidateWithMode validates configuration for the given context and deployment mode
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextServe:
		c.validateStorage(result, mode)
		c.validateServer(result)
		c.validateAPI(result, false)
		c.validateAnalysis(result)
		c.validateCache(result)
	case ValidationContextAnalyze:
		c.validateStorage(result, mode)
		c.validateAPI(result, false)
		c.validateAnalysis(result)
	case ValidationContextResearch:
		c.validateStorage(result, mode)
		c.validateAPI(result, true)
	}

	return result
}

// Require validates configuration and returns a config error if invalid
func (c *Config) Require(ctx ValidationContext) error {
	result := c.Validate(ctx)
	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}

func (c *Config) validateStorage(result *ValidationResult, mode DeploymentMode) {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("LOCAL_DB_PATH is required for sqlite storage")
		}
	case "postgres":
		dsn := c.Storage.PostgresDSN
		if dsn == "" {
			result.AddError("POSTGRES_DSN is required for postgres storage")
			return
		}
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			result.AddError("POSTGRES_DSN must start with postgres:// or postgresql://")
		}
		if strings.Contains(dsn, "sslmode=disable") {
			if mode.RequiresSecureCredentials() {
				result.AddError("PostgreSQL DSN has sslmode=disable. This is not allowed in %s mode.", mode)
			} else {
				result.AddWarning("PostgreSQL DSN has sslmode=disable.")
			}
		}
	default:
		result.AddError("STORAGE_TYPE must be sqlite or postgres, got %q", c.Storage.Type)
	}
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.Addr == "" {
		result.AddError("server.addr is required")
	}
	if c.Server.RequestsPerMin <= 0 {
		result.AddWarning("server.requests_per_min is not positive, rate limiting disabled")
	}
}

func (c *Config) validateAPI(result *ValidationResult, required bool) {
	missing := func(name string) {
		if required {
			result.AddError("%s is required but not set. Set it via environment variable or keychain.", name)
		} else {
			result.AddWarning("%s is not set. AI scoring will fall back to the keyword heuristic.", name)
		}
	}

	switch c.API.Provider {
	case "openai":
		if c.API.OpenAIKey == "" {
			missing("OPENAI_API_KEY")
		}
	case "gemini":
		if c.API.GeminiKey == "" {
			missing("GEMINI_API_KEY")
		}
	case "custom":
		if c.API.CustomLLMURL == "" {
			missing("CUSTOM_LLM_URL")
		} else if _, err := url.Parse(c.API.CustomLLMURL); err != nil {
			result.AddError("CUSTOM_LLM_URL is invalid: %v", err)
		}
	case "none", "":
		if required {
			result.AddError("LLM_PROVIDER must be openai, gemini or custom for this command")
		}
	default:
		result.AddError("unknown LLM_PROVIDER %q", c.API.Provider)
	}
}

func (c *Config) validateAnalysis(result *ValidationResult) {
	if c.Analysis.ScoringTimeout <= 0 {
		result.AddError("analysis.scoring_timeout must be positive")
	}
	if c.Analysis.SlateConcurrency < 1 {
		result.AddWarning("analysis.slate_concurrency < 1, slates will be analyzed sequentially")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Enabled && c.Cache.Addr == "" {
		result.AddError("cache.addr is required when the cache is enabled")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		result.AddWarning("cache.ttl is not positive, cached scores never expire")
	}
}
