package main

import (
	"context"
	"fmt"

	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/spf13/cobra"
)

var researchAnalyze bool

var researchCmd = &cobra.Command{
	Use:   "research <game-id>",
	Short: "Gather evidence for a game from the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Require(config.ValidationContextResearch); err != nil {
			return err
		}

		ctx := context.Background()
		svc, err := buildServices(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		if svc.gatherer == nil {
			return fmt.Errorf("research requires an llm provider (run 'slatewise configure')")
		}

		evidence, err := svc.gatherer.Gather(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Stored %d evidence items\n", len(evidence))
		for _, ev := range evidence {
			fmt.Printf("  [%s] %s (%s)\n", ev.Category, ev.Headline, ev.Source)
		}

		if !researchAnalyze {
			return nil
		}
		result, err := svc.engine.AnalyzeAndUpdateGame(ctx, args[0])
		if err != nil {
			return err
		}
		printGameAnalysis(result)
		return nil
	},
}

func init() {
	researchCmd.Flags().BoolVar(&researchAnalyze, "analyze", false, "analyze the game after storing evidence")
}
