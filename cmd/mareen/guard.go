package main

import (
	"fmt"
	"strings"

	"github.com/saxil/mareen/internal/service/ui"
	"github.com/spf13/cobra"
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Check inputs and the identity file",
}

var guardCheckCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Test whether an input would be rejected as an injection attempt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		g := app.NewGuard(ctx)
		out := cmd.OutOrStdout()

		hit, pattern := g.Detect(strings.Join(args, " "))
		if !hit {
			fmt.Fprint(out, ui.Success("No injection pattern found."))
			return nil
		}

		fmt.Fprint(out, ui.Warning("Rejected"))
		fmt.Fprint(out, ui.Label("Pattern", pattern))
		fmt.Fprint(out, ui.Label("Reply", g.RejectResponse(pattern)))
		return nil
	},
}

var guardVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Show identity file status and integrity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		g := app.NewGuard(ctx)
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderGuardStats(g.Stats(ctx)))
		return nil
	},
}

func init() {
	guardCmd.AddCommand(guardCheckCmd, guardVerifyCmd)
	rootCmd.AddCommand(guardCmd)
}
