package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Analysis.ScoringTimeout)
	assert.Equal(t, 1, cfg.Analysis.SlateConcurrency)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
storage:
  type: postgres
  postgres_dsn: postgres://slatewise@db:5432/slatewise
analysis:
  scoring_timeout: 5s
  slate_concurrency: 3
api:
  provider: openai
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	t.Setenv("OPENAI_API_KEY", "sk-env-key-123456")
	t.Setenv("SLATE_CONCURRENCY", "2")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://slatewise@db:5432/slatewise", cfg.Storage.PostgresDSN)
	assert.Equal(t, 5*time.Second, cfg.Analysis.ScoringTimeout)
	assert.Equal(t, 2, cfg.Analysis.SlateConcurrency, "env var wins over file")
	assert.Equal(t, "sk-env-key-123456", cfg.API.OpenAIKey)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		ctx       ValidationContext
		wantError string
	}{
		{
			name:   "defaults are valid for serve",
			mutate: func(c *Config) {},
			ctx:    ValidationContextServe,
		},
		{
			name:      "unknown storage type",
			mutate:    func(c *Config) { c.Storage.Type = "mysql" },
			ctx:       ValidationContextAnalyze,
			wantError: "STORAGE_TYPE",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
			},
			ctx:       ValidationContextServe,
			wantError: "POSTGRES_DSN",
		},
		{
			name:      "research needs a provider",
			mutate:    func(c *Config) { c.API.Provider = "none" },
			ctx:       ValidationContextResearch,
			wantError: "LLM_PROVIDER",
		},
		{
			name:      "research needs the provider key",
			mutate:    func(c *Config) { c.API.Provider = "gemini" },
			ctx:       ValidationContextResearch,
			wantError: "GEMINI_API_KEY",
		},
		{
			name:      "non-positive scoring timeout",
			mutate:    func(c *Config) { c.Analysis.ScoringTimeout = 0 },
			ctx:       ValidationContextAnalyze,
			wantError: "scoring_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			result := cfg.ValidateWithMode(tt.ctx, ModeLocal)
			if tt.wantError == "" {
				assert.False(t, result.HasErrors(), result.Error())
				return
			}
			require.True(t, result.HasErrors())
			assert.Contains(t, result.Error(), tt.wantError)
		})
	}
}

func TestValidate_MissingKeyIsWarningForAnalyze(t *testing.T) {
	cfg := Default()
	cfg.API.Provider = "openai"

	result := cfg.ValidateWithMode(ValidationContextAnalyze, ModeLocal)
	assert.False(t, result.HasErrors())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "heuristic")
}

func TestKeyringManager_SaveGetDelete(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager()
	require.True(t, km.IsAvailable())

	require.NoError(t, km.SaveAPIKey(KeyringGeminiItem, "gemini-test-key"))

	got, err := km.GetAPIKey(KeyringGeminiItem)
	require.NoError(t, err)
	assert.Equal(t, "gemini-test-key", got)

	require.NoError(t, km.DeleteAPIKey(KeyringGeminiItem))
	got, err = km.GetAPIKey(KeyringGeminiItem)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting twice is not an error
	assert.NoError(t, km.DeleteAPIKey(KeyringGeminiItem))
}

func TestKeyringManager_SaveEmptyKey(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, NewKeyringManager().SaveAPIKey(KeyringOpenAIItem, ""))
}

func TestCredentialManager_PriorityChain(t *testing.T) {
	keyring.MockInit()
	cm := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	cm.mode = ModeLocal
	cm.out = &strings.Builder{}

	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, cm.keyring.SaveAPIKey(KeyringOpenAIItem, "sk-from-keychain"))

	key, err := cm.GetAPIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keychain", key)

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	key, err = cm.GetAPIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)
}

func TestCredentialManager_PromptAndSave(t *testing.T) {
	keyring.MockInit()
	cm := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	cm.mode = ModeLocal
	cm.in = strings.NewReader("sk-typed-key-000000\n")
	cm.out = &strings.Builder{}

	key, err := cm.PromptAndSave("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-typed-key-000000", key)

	stored, err := cm.keyring.GetAPIKey(KeyringOpenAIItem)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed-key-000000", stored)
}

func TestCredentialManager_RejectsMalformedOpenAIKey(t *testing.T) {
	keyring.MockInit()
	cm := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	cm.mode = ModeLocal
	cm.in = strings.NewReader("not-a-key\n")
	cm.out = &strings.Builder{}

	_, err := cm.PromptAndSave("openai")
	assert.Error(t, err)
}

func TestCredentialManager_UnknownProvider(t *testing.T) {
	cm := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	cm.mode = ModeLocal
	_, err := cm.GetAPIKey("anthropic")
	assert.Error(t, err)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", MaskAPIKey(""))
	assert.Equal(t, "***", MaskAPIKey("short"))
	assert.Equal(t, "sk-proj...7890", MaskAPIKey("sk-proj-abcdef1234567890"))
}

func TestCredentialManager_RemoveAPIKey(t *testing.T) {
	keyring.MockInit()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	local := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	local.mode = ModeLocal
	local.out = &strings.Builder{}

	require.NoError(t, local.SaveAPIKey("openai", "sk-from-keychain-0000"))
	assert.Equal(t, "sk-from-keychain-0000", local.StoredAPIKey("openai"))

	require.NoError(t, local.RemoveAPIKey("openai"))
	assert.Empty(t, local.StoredAPIKey("openai"))
	stored, err := local.keyring.GetAPIKey(KeyringOpenAIItem)
	require.NoError(t, err)
	assert.Empty(t, stored)

	// Nothing left to remove
	assert.NoError(t, local.RemoveAPIKey("openai"))

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	server := NewCredentialManagerAt(path)
	server.mode = ModeServer
	server.out = &strings.Builder{}

	require.NoError(t, server.SaveAPIKey("gemini", "gemini-from-file"))
	require.NoError(t, server.SaveAPIKey("openai", "sk-file-key-000000"))
	require.NoError(t, server.RemoveAPIKey("gemini"))
	assert.Empty(t, server.StoredAPIKey("gemini"))
	assert.Equal(t, "sk-file-key-000000", server.StoredAPIKey("openai"))

	assert.Error(t, server.RemoveAPIKey("anthropic"))
}

func TestCredentialManager_StoredAPIKeyPrefersEnv(t *testing.T) {
	keyring.MockInit()
	cm := NewCredentialManagerAt(filepath.Join(t.TempDir(), "credentials.yaml"))
	cm.mode = ModeLocal

	t.Setenv("GEMINI_API_KEY", "")
	assert.Empty(t, cm.StoredAPIKey("gemini"))

	t.Setenv("GEMINI_API_KEY", "gemini-from-env")
	assert.Equal(t, "gemini-from-env", cm.StoredAPIKey("gemini"))
	assert.Empty(t, cm.StoredAPIKey("anthropic"))
}

func TestConfig_APIKeyFor(t *testing.T) {
	cfg := Default()
	cfg.API.GeminiKey = "gemini-plaintext-key"

	assert.Equal(t, "gemini-plaintext-key", cfg.APIKeyFor("gemini"))
	assert.Empty(t, cfg.APIKeyFor("openai"))
	assert.Empty(t, cfg.APIKeyFor("anthropic"))
	assert.Equal(t, "gemini-...-key", MaskAPIKey(cfg.APIKeyFor("gemini")))
}

func TestCredentialManager_ServerModeSkipsKeychain(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	cm := NewCredentialManagerAt(path)
	cm.mode = ModeServer
	cm.out = &strings.Builder{}

	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, cm.keyring.SaveAPIKey(KeyringGeminiItem, "gemini-from-keychain"))

	_, err := cm.GetAPIKey("gemini")
	assert.Error(t, err, "server mode must not read the keychain")

	// Saving falls through to the credentials file
	require.NoError(t, cm.SaveAPIKey("gemini", "gemini-from-file"))
	key, err := cm.GetAPIKey("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini-from-file", key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDetectMode(t *testing.T) {
	for _, v := range ciEnvVars {
		t.Setenv(v, "")
	}
	t.Setenv("KUBERNETES_SERVICE_HOST", "")

	t.Setenv("SLATEWISE_MODE", "prod")
	assert.Equal(t, ModeServer, DetectMode())

	t.Setenv("SLATEWISE_MODE", "")
	t.Setenv("GITHUB_ACTIONS", "true")
	assert.Equal(t, ModeCI, DetectMode())

	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")
	assert.Equal(t, ModeServer, DetectMode())
}

func TestModeTraits(t *testing.T) {
	assert.True(t, ModeLocal.AllowsInteractivePrompts())
	assert.True(t, ModeLocal.UsesKeychain())
	assert.False(t, ModeLocal.RequiresSecureCredentials())

	assert.False(t, ModeServer.AllowsInteractivePrompts())
	assert.True(t, ModeServer.RequiresSecureCredentials())
	assert.False(t, ModeCI.UsesKeychain())

	_, ok := ParseMode("staging")
	assert.False(t, ok)
}

func TestValidate_PlaintextPostgresRejectedOnServer(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "postgres"
	cfg.Storage.PostgresDSN = "postgres://slatewise@db:5432/slatewise?sslmode=disable"

	local := cfg.ValidateWithMode(ValidationContextAnalyze, ModeLocal)
	assert.False(t, local.HasErrors())
	assert.NotEmpty(t, local.Warnings)

	server := cfg.ValidateWithMode(ValidationContextAnalyze, ModeServer)
	require.True(t, server.HasErrors())
	assert.Contains(t, server.Error(), "sslmode=disable")
}
