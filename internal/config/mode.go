package config

import (
	"os"
	"strings"
)

// DeploymentMode is where slatewise is running. It decides whether the
// credential chain may prompt and how strict storage validation is.
type DeploymentMode string

const (
	// ModeLocal is a handicapper's workstation: sqlite file, keychain, prompts allowed
	ModeLocal DeploymentMode = "local"

	// ModeServer is a hosted `slatewise serve`: keys come from the environment only
	ModeServer DeploymentMode = "server"

	// ModeCI is a pipeline run: no prompts, no keychain
	ModeCI DeploymentMode = "ci"
)

type modeTraits struct {
	description string
	strictTLS   bool
	prompts     bool
	keychain    bool
}

var traits = map[DeploymentMode]modeTraits{
	ModeLocal:  {description: "Local workstation", prompts: true, keychain: true},
	ModeServer: {description: "Hosted API server", strictTLS: true},
	ModeCI:     {description: "CI pipeline", strictTLS: true},
}

var ciEnvVars = []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE"}

// DetectMode reads SLATEWISE_MODE, then falls back to CI and container
// markers. Anything else is a local install.
func DetectMode() DeploymentMode {
	if m, ok := ParseMode(os.Getenv("SLATEWISE_MODE")); ok {
		return m
	}

	for _, v := range ciEnvVars {
		if os.Getenv(v) != "" {
			return ModeCI
		}
	}

	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return ModeServer
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return ModeServer
	}

	return ModeLocal
}

// ParseMode accepts the canonical names plus a few common aliases
func ParseMode(s string) (DeploymentMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "dev", "development":
		return ModeLocal, true
	case "server", "prod", "production":
		return ModeServer, true
	case "ci":
		return ModeCI, true
	}
	return "", false
}

func (m DeploymentMode) String() string {
	return string(m)
}

// RequiresSecureCredentials reports whether plaintext database
// connections are rejected instead of warned about.
func (m DeploymentMode) RequiresSecureCredentials() bool {
	return traits[m].strictTLS
}

// AllowsInteractivePrompts reports whether a missing API key may be asked for on stdin
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return traits[m].prompts
}

// UsesKeychain reports whether the OS keychain is consulted at all
func (m DeploymentMode) UsesKeychain() bool {
	return traits[m].keychain
}

func (m DeploymentMode) Description() string {
	if t, ok := traits[m]; ok {
		return t.description
	}
	return "Unknown mode"
}
