package main

import (
	"fmt"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/providers/llm"
	"github.com/saxil/mareen/internal/service/ui"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the configured chat backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		p, err := llm.NewProvider(ctx, config.NewLLMConfig(ctx))
		if err != nil {
			return err
		}
		models, err := p.Models(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, ui.Label("Current", p.Model()))
		for _, m := range models {
			fmt.Fprintln(out, "  "+m.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
