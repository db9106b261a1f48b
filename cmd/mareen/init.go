package main

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/service/installer"
	"github.com/saxil/mareen/internal/service/ui"
	"github.com/saxil/mareen/pkg/log"
	"github.com/spf13/cobra"
)

var filesOnly bool

var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Create the runtime directory, identity file and configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()

		if filesOnly {
			if err := installer.InitializeFiles(runtimePath); err != nil {
				return err
			}
		} else {
			logger.Info().Msg("starting setup wizard")
			if _, err := installer.RunWizard(runtimePath); err != nil {
				return err
			}

			envPath := filepath.Join(runtimePath, ".env")
			if err := godotenv.Load(envPath); err != nil {
				logger.Warn().Err(err).Str("path", envPath).Msg("failed to load .env file")
			}
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		fmt.Fprint(cmd.OutOrStdout(), ui.Success("Setup complete! Edit soul.md to shape Mareen, then run 'mareen chat'."))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&filesOnly, "files-only", false, "write soul.md and guard.yaml without the interactive wizard")
	rootCmd.AddCommand(initCmd)
}
