package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rohankatakam/slatewise/internal/export"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <slate-id>",
	Short: "Write a slate's games and picks as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		slate, err := store.GetSlate(ctx, args[0])
		if err != nil {
			return err
		}
		games, err := store.ListGamesBySlate(ctx, slate.ID)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}

		if err := export.WriteSlateCSV(w, slate, games); err != nil {
			return err
		}
		if w != os.Stdout {
			logger.WithField("file", exportOutput).Infof("Exported %d games", len(games))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file (- for stdout)")
}
