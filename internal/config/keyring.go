package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/zalando/go-keyring"
)

// Keychain layout: one service, one item per LLM provider.
// macOS shows these under Keychain Access → "Slatewise"; Linux needs a
// Secret Service (libsecret) daemon.
const (
	KeyringService       = "Slatewise"
	KeyringOpenAIItem    = "openai-api-key"
	KeyringGeminiItem    = "gemini-api-key"
	KeyringCustomLLMItem = "custom-llm-key"

	probeItem = "availability-probe"
)

// KeyringManager stores provider API keys in the OS keychain
type KeyringManager struct {
	logger *slog.Logger

	probeOnce sync.Once
	available bool
}

func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// SaveAPIKey stores apiKey under item
func (km *KeyringManager) SaveAPIKey(item, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if err := keyring.Set(KeyringService, item, apiKey); err != nil {
		km.logger.Error("keychain write failed", "item", item, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.Info("api key saved to keychain", "item", item)
	return nil
}

// GetAPIKey returns "" with a nil error when the item does not exist
func (km *KeyringManager) GetAPIKey(item string) (string, error) {
	apiKey, err := keyring.Get(KeyringService, item)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", nil
	case err != nil:
		km.logger.Error("keychain read failed", "item", item, "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return apiKey, nil
}

// DeleteAPIKey is a no-op for a missing item
func (km *KeyringManager) DeleteAPIKey(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		km.logger.Error("keychain delete failed", "item", item, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// IsAvailable probes the keychain once. Headless hosts without a
// Secret Service report false.
func (km *KeyringManager) IsAvailable() bool {
	km.probeOnce.Do(func() {
		_, err := keyring.Get(KeyringService, probeItem)
		km.available = err == nil || errors.Is(err, keyring.ErrNotFound)
		if !km.available {
			km.logger.Debug("keychain not available", "error", err)
		}
	})
	return km.available
}

// KeySourceInfo describes where a provider key currently resolves from
type KeySourceInfo struct {
	Source      string // env, keychain, config or none
	Secure      bool
	Recommended string
}

// GetAPIKeySource reports which link of the credential chain supplies
// the key for provider
func (km *KeyringManager) GetAPIKeySource(cfg *Config, provider string) KeySourceInfo {
	envVar, item, _, err := providerSlots(provider)
	if err != nil {
		return KeySourceInfo{Source: "none", Recommended: err.Error()}
	}

	if os.Getenv(envVar) != "" {
		return KeySourceInfo{Source: "env", Secure: true, Recommended: "Using " + envVar}
	}
	if km.IsAvailable() {
		if key, _ := km.GetAPIKey(item); key != "" {
			return KeySourceInfo{Source: "keychain", Secure: true, Recommended: "Stored in OS keychain"}
		}
	}
	if field := apiKeyField(cfg, provider); field != nil && *field != "" {
		return KeySourceInfo{Source: "config", Recommended: "Plaintext key in config.yaml. Run: slatewise configure"}
	}
	return KeySourceInfo{Source: "none", Recommended: "No API key configured. Run: slatewise configure"}
}

// apiKeyField points at the config.yaml slot for provider's key
func apiKeyField(cfg *Config, provider string) *string {
	switch provider {
	case "openai":
		return &cfg.API.OpenAIKey
	case "gemini":
		return &cfg.API.GeminiKey
	case "custom":
		return &cfg.API.CustomLLMKey
	}
	return nil
}

// APIKeyFor returns the key config.yaml holds for provider, if any
func (c *Config) APIKeyFor(provider string) string {
	if field := apiKeyField(c, provider); field != nil {
		return *field
	}
	return ""
}

// MaskAPIKey keeps the first seven and last four characters
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return apiKey[:7] + "..." + apiKey[len(apiKey)-4:]
}
