package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive setup for the LLM provider (with OS keychain support)",
	Long: `Walk through provider selection and store the API key securely.

Keys go to the OS keychain when one is available and to
~/.config/slatewise/credentials.yaml otherwise. Without a provider,
analysis still runs on the keyword heuristic.`,
	RunE: runConfigure,
}

var configureRemove string

func init() {
	configureCmd.Flags().StringVar(&configureRemove, "remove", "", "delete the stored key for a provider (openai, gemini, custom) and exit")
}

// removeProviderKey clears a provider key from the keychain and the
// credentials file
func removeProviderKey(cm *config.CredentialManager, provider string) error {
	if err := cm.RemoveAPIKey(provider); err != nil {
		return err
	}
	fmt.Printf("✅ Removed stored %s key\n", provider)
	if key := cm.StoredAPIKey(provider); key != "" {
		fmt.Printf("⚠️  A key is still set in the environment (%s)\n", config.MaskAPIKey(key))
	}
	return nil
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cm := config.NewCredentialManager()
	if configureRemove != "" {
		return removeProviderKey(cm, configureRemove)
	}

	fmt.Println("🔧 Slatewise Configuration")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	configPath := cfgFile
	if configPath == "" {
		homeDir, _ := os.UserHomeDir()
		configPath = filepath.Join(homeDir, ".slatewise", "config.yaml")
	}
	loadedCfg, err := config.Load(configPath)
	if err != nil {
		loadedCfg = config.Default()
	}

	fmt.Println("Step 1/3: LLM provider")
	fmt.Println("  1. openai  (gpt-4o-mini)")
	fmt.Println("  2. gemini  (gemini-2.0-flash)")
	fmt.Println("  3. custom  (OpenAI-compatible endpoint: vLLM, Ollama, LiteLLM)")
	fmt.Println("  4. none    (keyword heuristic only)")
	fmt.Printf("Current: %s\n", loadedCfg.API.Provider)
	fmt.Print("Select provider (1-4) or press Enter to keep current: ")

	switch readLine(reader) {
	case "1":
		loadedCfg.API.Provider = "openai"
	case "2":
		loadedCfg.API.Provider = "gemini"
	case "3":
		loadedCfg.API.Provider = "custom"
	case "4":
		loadedCfg.API.Provider = "none"
	}
	provider := loadedCfg.API.Provider
	fmt.Printf("✅ Using %s\n\n", provider)

	if provider == "custom" {
		fmt.Printf("Endpoint base URL [%s]: ", loadedCfg.API.CustomLLMURL)
		if v := readLine(reader); v != "" {
			loadedCfg.API.CustomLLMURL = v
		}
		fmt.Printf("Model name [%s]: ", loadedCfg.API.CustomLLMModel)
		if v := readLine(reader); v != "" {
			loadedCfg.API.CustomLLMModel = v
		}
		fmt.Println()
	}

	if provider != "none" && provider != "" {
		fmt.Println("Step 2/3: API key")
		km := config.NewKeyringManager()
		source := km.GetAPIKeySource(loadedCfg, provider)

		keep := false
		if source.Source != "none" {
			current := cm.StoredAPIKey(provider)
			if source.Source == "config" {
				current = loadedCfg.APIKeyFor(provider)
			}
			fmt.Printf("Source: %s\n", source.Recommended)
			fmt.Printf("Current key: %s\n", config.MaskAPIKey(current))
			fmt.Print("Keep existing key? (Y/n, r to remove): ")
			switch strings.ToLower(readLine(reader)) {
			case "", "y":
				keep = true
			case "r":
				if err := removeProviderKey(cm, provider); err != nil {
					fmt.Printf("⚠️  %v\n", err)
				}
				keep = true
			}
		}

		if !keep {
			if _, err := cm.PromptAndSave(provider); err != nil {
				fmt.Printf("⚠️  %v\n", err)
				fmt.Println("You can rerun 'slatewise configure' later.")
			} else if km.IsAvailable() {
				loadedCfg.API.UseKeychain = true
			}
		}
		fmt.Println()
	}

	fmt.Println("Step 3/3: Save configuration")
	fmt.Printf("Save to: %s\n", configPath)
	fmt.Print("Confirm? (Y/n): ")
	answer := strings.ToLower(readLine(reader))
	if answer != "" && answer != "y" {
		fmt.Println("Configuration not saved.")
		return nil
	}

	// Keys live in the keychain or credentials file, never in config.yaml
	loadedCfg.API.OpenAIKey = ""
	loadedCfg.API.GeminiKey = ""
	loadedCfg.API.CustomLLMKey = ""

	if err := loadedCfg.Save(configPath); err != nil {
		return err
	}
	fmt.Println("✅ Configuration saved")
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
