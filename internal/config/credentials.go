package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rohankatakam/slatewise/internal/errors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager handles credential retrieval with priority chain
// Priority: Environment Variables → Keychain → Credentials File → Interactive Prompt
type CredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
	in         io.Reader
	out        io.Writer
}

// Credentials holds the LLM provider keys
type Credentials struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	CustomLLMKey string `yaml:"custom_llm_key,omitempty"`
}

// NewCredentialManager creates a credential manager backed by ~/.config/slatewise/credentials.yaml
func NewCredentialManager() *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	return NewCredentialManagerAt(filepath.Join(homeDir, ".config", "slatewise", "credentials.yaml"))
}

// NewCredentialManagerAt creates a credential manager using an explicit credentials file
func NewCredentialManagerAt(path string) *CredentialManager {
	return &CredentialManager{
		mode:       DetectMode(),
		keyring:    NewKeyringManager(),
		configPath: path,
		in:         os.Stdin,
		out:        os.Stdout,
	}
}

// providerSlots maps a provider name to its env var, keychain item and file field
func providerSlots(provider string) (envVar, item string, field func(*Credentials) *string, err error) {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY", KeyringOpenAIItem, func(c *Credentials) *string { return &c.OpenAIAPIKey }, nil
	case "gemini":
		return "GEMINI_API_KEY", KeyringGeminiItem, func(c *Credentials) *string { return &c.GeminiAPIKey }, nil
	case "custom":
		return "CUSTOM_LLM_KEY", KeyringCustomLLMItem, func(c *Credentials) *string { return &c.CustomLLMKey }, nil
	default:
		return "", "", nil, errors.ValidationErrorf("unknown LLM provider %q", provider)
	}
}

// GetAPIKey retrieves the key for provider ("openai", "gemini", "custom") using the priority chain
func (cm *CredentialManager) GetAPIKey(provider string) (string, error) {
	envVar, _, _, err := providerSlots(provider)
	if err != nil {
		return "", err
	}

	if key := cm.StoredAPIKey(provider); key != "" {
		return key, nil
	}

	// 4. Interactive prompt (local installs only)
	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		return cm.PromptAndSave(provider)
	}

	return "", errors.ConfigErrorf(
		"%s not found. Set it via:\n"+
			"  1. Environment variable: export %s=...\n"+
			"  2. Run: slatewise configure\n"+
			"  3. Credentials file: %s", envVar, envVar, cm.configPath)
}

// StoredAPIKey walks the chain without prompting. It returns "" when no
// link holds a key or provider is unknown.
func (cm *CredentialManager) StoredAPIKey(provider string) string {
	envVar, item, field, err := providerSlots(provider)
	if err != nil {
		return ""
	}

	// 1. Environment variable (highest priority)
	if key := os.Getenv(envVar); key != "" {
		return key
	}

	// 2. Keychain
	if cm.keychainUsable() {
		if key, err := cm.keyring.GetAPIKey(item); err == nil && key != "" {
			return key
		}
	}

	// 3. Credentials file
	if creds, err := cm.loadConfigFile(); err == nil {
		return *field(creds)
	}
	return ""
}

// RemoveAPIKey deletes provider's key from the keychain and the
// credentials file. A key that is not stored is not an error; env vars
// are left alone.
func (cm *CredentialManager) RemoveAPIKey(provider string) error {
	_, item, field, err := providerSlots(provider)
	if err != nil {
		return err
	}

	if cm.keychainUsable() {
		if err := cm.keyring.DeleteAPIKey(item); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to remove API key from keychain")
		}
	}

	creds, err := cm.loadConfigFile()
	if err != nil || *field(creds) == "" {
		return nil
	}
	*field(creds) = ""
	if err := cm.saveConfigFile(*creds); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
			"failed to write credentials file")
	}
	return nil
}

// PromptAndSave reads a key for provider without echo and stores it
func (cm *CredentialManager) PromptAndSave(provider string) (string, error) {
	if _, _, _, err := providerSlots(provider); err != nil {
		return "", err
	}

	fmt.Fprintf(cm.out, "Enter %s API key: ", provider)
	key, err := cm.readSecurely()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.ConfigErrorf("%s API key is required", provider)
	}
	if provider == "openai" && !strings.HasPrefix(key, "sk-") {
		return "", errors.ValidationError("OpenAI API key should start with 'sk-'")
	}

	if err := cm.SaveAPIKey(provider, key); err != nil {
		return "", err
	}
	return key, nil
}

// SaveAPIKey saves a key to keychain (preferred) or the credentials file (fallback)
func (cm *CredentialManager) SaveAPIKey(provider, key string) error {
	_, item, field, err := providerSlots(provider)
	if err != nil {
		return err
	}

	if cm.keychainUsable() {
		if err := cm.keyring.SaveAPIKey(item, key); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save API key to keychain")
		}
		fmt.Fprintln(cm.out, "✓ Saved to keychain")
		return nil
	}

	creds, err := cm.loadConfigFile()
	if err != nil {
		creds = &Credentials{}
	}
	*field(creds) = key
	if err := cm.saveConfigFile(*creds); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
			"failed to write credentials file")
	}
	fmt.Fprintf(cm.out, "✓ Saved to %s\n", cm.configPath)
	return nil
}

// loadConfigFile loads credentials from the credentials file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile writes the credentials file with user-only permissions
func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(cm.configPath, data, 0600)
}

// readSecurely reads a password/token from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	if cm.in == os.Stdin && term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Piped input
	reader := bufio.NewReader(cm.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

func (cm *CredentialManager) keychainUsable() bool {
	return cm.mode.UsesKeychain() && cm.keyring.IsAvailable()
}
