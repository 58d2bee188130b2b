package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long:  `Applies the schema to the configured sqlite or postgres database. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(context.Background()); err != nil {
			return err
		}
		fmt.Printf("✓ Schema ready (%s)\n", store.Dialect())
		return nil
	},
}
