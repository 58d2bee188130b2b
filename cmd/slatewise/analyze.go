package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rohankatakam/slatewise/internal/analysis"
	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/spf13/cobra"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a game or a whole slate and store the picks",
}

var analyzeGameCmd = &cobra.Command{
	Use:   "game <game-id>",
	Short: "Analyze one game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := analysisServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.engine.AnalyzeAndUpdateGame(context.Background(), args[0])
		if err != nil {
			return err
		}
		if analyzeJSON {
			return printJSON(result)
		}
		printGameAnalysis(result)
		return nil
	},
}

var analyzeSlateCmd = &cobra.Command{
	Use:   "slate <slate-id>",
	Short: "Analyze every game in a slate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := analysisServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		if _, err := svc.store.GetSlate(ctx, args[0]); err != nil {
			return err
		}

		result, err := svc.engine.AnalyzeSlate(ctx, args[0])
		if err != nil {
			return err
		}
		if analyzeJSON {
			return printJSON(result)
		}

		for _, a := range result.Analyzed {
			printGameAnalysis(a)
		}
		for _, f := range result.Failures {
			fmt.Printf("✗ %s: %s\n", f.GameID, f.Error)
		}
		fmt.Printf("\n%d analyzed, %d failed\n", len(result.Analyzed), len(result.Failures))
		return nil
	},
}

func init() {
	analyzeCmd.PersistentFlags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCmd.AddCommand(analyzeGameCmd)
	analyzeCmd.AddCommand(analyzeSlateCmd)
}

func analysisServices() (*services, error) {
	result := cfg.Validate(config.ValidationContextAnalyze)
	for _, w := range result.Warnings {
		logger.Debug(w)
	}
	if err := cfg.Require(config.ValidationContextAnalyze); err != nil {
		return nil, err
	}
	return buildServices(context.Background(), cfg, nil)
}

func printGameAnalysis(a *analysis.GameAnalysis) {
	g := a.Game
	r := a.Result

	fmt.Printf("%s at %s\n", g.AwayTeam, g.HomeTeam)
	if r.Insufficient() {
		fmt.Println("  Insufficient evidence, game left pending")
		return
	}

	line := r.PickLine
	if line == "" {
		line = "no line"
	}
	fmt.Printf("  Pick: %s (%s)  confidence %d-%d%%  [%s, framework v%d]\n",
		r.Pick, line, r.ConfidenceLow, r.ConfidenceHigh, r.ScoringPath, r.FrameworkVersion)
	for _, f := range r.WhyFactors {
		fmt.Printf("    %-20s %5.1f%%  %+.3f  %s\n", f.Category, f.Weight, f.Contribution, strings.TrimSpace(f.Description))
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
