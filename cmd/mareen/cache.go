package main

import (
	"fmt"

	"github.com/saxil/mareen/internal/service/ui"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show provider, entries and persistence of the embedding cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, true)
		defer app.Close(ctx)

		fmt.Fprint(cmd.OutOrStdout(), ui.RenderCacheStats(app.cache.Stats()))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached embedding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		if err := app.cache.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.Success("Embedding cache cleared."))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
