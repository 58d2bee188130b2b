package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var frameworkActivate bool

var frameworkCmd = &cobra.Command{
	Use:   "framework",
	Short: "Manage weight frameworks",
}

// frameworkFile is the on-disk YAML layout accepted by "framework import"
type frameworkFile struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
	Rules   []string           `yaml:"rules"`
}

var frameworkImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create a new framework version from a YAML file",
	Example: `  # weights.yaml
  name: Week 7 model
  weights:
    qbRating: 25
    defense: 20
    injuries: 15
    homeField: 10
  rules:
    - Fade teams on a short week

  slatewise framework import weights.yaml --activate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read framework file: %w", err)
		}

		var file frameworkFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse framework file: %w", err)
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		fw := &models.Framework{
			Name:     file.Name,
			Weights:  models.Weights(file.Weights),
			Rules:    file.Rules,
			IsActive: frameworkActivate,
		}
		if err := store.CreateFramework(ctx, fw); err != nil {
			return err
		}

		total := 0.0
		for _, w := range fw.Weights {
			total += w
		}
		fmt.Printf("✓ Imported %q as version %d (%d factors, total weight %g)\n", fw.Name, fw.Version, len(fw.Weights), total)
		if fw.IsActive {
			fmt.Println("  Active for new analyses")
		}
		return nil
	},
}

var frameworkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List framework versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		frameworks, err := store.ListFrameworks(context.Background())
		if err != nil {
			return err
		}
		if len(frameworks) == 0 {
			fmt.Println("No frameworks yet. Import one with 'slatewise framework import'.")
			return nil
		}

		for _, fw := range frameworks {
			marker := " "
			if fw.IsActive {
				marker = "*"
			}
			fmt.Printf("%s v%-3d %-24s %s  %s\n", marker, fw.Version, fw.Name, fw.ID, formatWeights(fw.Weights))
		}
		return nil
	},
}

var frameworkActivateCmd = &cobra.Command{
	Use:   "activate <framework-id>",
	Short: "Make a framework the one used by new analyses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.ActivateFramework(ctx, args[0]); err != nil {
			return err
		}
		fw, err := store.GetFramework(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Activated %q (version %d)\n", fw.Name, fw.Version)
		return nil
	},
}

func init() {
	frameworkImportCmd.Flags().BoolVar(&frameworkActivate, "activate", false, "activate the imported framework")

	frameworkCmd.AddCommand(frameworkImportCmd)
	frameworkCmd.AddCommand(frameworkListCmd)
	frameworkCmd.AddCommand(frameworkActivateCmd)
}

// formatWeights renders weights as "factor=w" pairs sorted by name
func formatWeights(w models.Weights) string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, w[name])
	}
	return strings.Join(parts, " ")
}
