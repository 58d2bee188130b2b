package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/slatewise/internal/analysis"
	"github.com/rohankatakam/slatewise/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the AI factor-score cache",
}

func withCache(fn func(ctx context.Context, client *cache.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := cache.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cached factor scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(ctx context.Context, client *cache.Client) error {
			n, err := client.Count(ctx, analysis.ScoreCachePattern)
			if err != nil {
				return err
			}
			fmt.Printf("%d cached score entries at %s (ttl %s)\n", n, cfg.Cache.Addr, cfg.Cache.TTL)
			return nil
		})
	},
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Delete every cached factor score",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(ctx context.Context, client *cache.Client) error {
				deleted, err := client.DeletePattern(ctx, analysis.ScoreCachePattern)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Removed %d cached score entries\n", deleted)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheFlushCmd)
}
