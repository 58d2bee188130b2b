package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// LLM provider configuration
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Analysis engine settings
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`

	// Redis cache for AI factor scores
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

type StorageConfig struct {
	Type        string `yaml:"type" mapstructure:"type"` // "postgres", "sqlite"
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	LocalPath   string `yaml:"local_path" mapstructure:"local_path"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestsPerMin int      `yaml:"requests_per_min" mapstructure:"requests_per_min"` // per client IP
	AuditLog       string   `yaml:"audit_log" mapstructure:"audit_log"`               // JSONL trail of locks and overrides
}

type APIConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "gemini", "custom", "none"
	OpenAIKey      string `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel    string `yaml:"openai_model" mapstructure:"openai_model"`
	GeminiKey      string `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel    string `yaml:"gemini_model" mapstructure:"gemini_model"`
	CustomLLMURL   string `yaml:"custom_llm_url" mapstructure:"custom_llm_url"`
	CustomLLMKey   string `yaml:"custom_llm_key" mapstructure:"custom_llm_key"`
	CustomLLMModel string `yaml:"custom_llm_model" mapstructure:"custom_llm_model"`
	UseKeychain    bool   `yaml:"use_keychain" mapstructure:"use_keychain"`
	RequestsPerMin int    `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

type AnalysisConfig struct {
	ScoringTimeout   time.Duration `yaml:"scoring_timeout" mapstructure:"scoring_timeout"`
	SlateConcurrency int           `yaml:"slate_concurrency" mapstructure:"slate_concurrency"` // 1 = sequential
	ResearchTimeout  time.Duration `yaml:"research_timeout" mapstructure:"research_timeout"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
	File   string `yaml:"file" mapstructure:"file"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".slatewise", "slatewise.db"),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
			RequestsPerMin: 120,
			AuditLog:       filepath.Join(homeDir, ".slatewise", "pick_audit.jsonl"),
		},
		API: APIConfig{
			Provider:       "none",
			OpenAIModel:    "gpt-4o-mini",
			GeminiModel:    "gemini-2.0-flash",
			RequestsPerMin: 60,
		},
		Analysis: AnalysisConfig{
			ScoringTimeout:   30 * time.Second,
			SlateConcurrency: 1,
			ResearchTimeout:  60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     6 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Unmarshal only overwrites the keys present in the file, so the
	// pre-populated defaults survive for everything else.
	cfg := Default()

	v.SetEnvPrefix("SLATEWISE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".slatewise")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".slatewise"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".slatewise", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Precedence for API keys: 1. Env var 2. Keychain 3. Config file
	useKeychain := cfg.API.UseKeychain && DetectMode().UsesKeychain()
	km := NewKeyringManager()
	for _, provider := range []string{"openai", "gemini", "custom"} {
		envVar, item, _, _ := providerSlots(provider)
		field := apiKeyField(cfg, provider)
		if key := os.Getenv(envVar); key != "" {
			*field = key
			continue
		}
		if *field == "" && useKeychain && km.IsAvailable() {
			if key, err := km.GetAPIKey(item); err == nil && key != "" {
				*field = key
			}
		}
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.API.Provider = provider
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.API.OpenAIModel = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.API.GeminiModel = model
	}
	if url := os.Getenv("CUSTOM_LLM_URL"); url != "" {
		cfg.API.CustomLLMURL = url
	}
	if model := os.Getenv("CUSTOM_LLM_MODEL"); model != "" {
		cfg.API.CustomLLMModel = model
	}

	// Storage configuration
	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}

	// Server configuration
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}

	// Cache configuration
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
		cfg.Cache.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Cache.Password = password
	}

	// Analysis configuration
	if timeout := os.Getenv("SCORING_TIMEOUT_SECONDS"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil {
			cfg.Analysis.ScoringTimeout = time.Duration(seconds) * time.Second
		}
	}
	if concurrency := os.Getenv("SLATE_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			cfg.Analysis.SlateConcurrency = n
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("storage", c.Storage)
	v.Set("server", c.Server)
	v.Set("api", c.API)
	v.Set("analysis", c.Analysis)
	v.Set("cache", c.Cache)
	v.Set("logging", c.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
