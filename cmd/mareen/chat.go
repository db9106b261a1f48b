package main

import (
	"os"
	"os/signal"

	"github.com/saxil/mareen/internal/service/guard"
	"github.com/saxil/mareen/internal/transport/cli"
	"github.com/saxil/mareen/pkg/log"
	"github.com/saxil/mareen/pkg/srv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Mareen in the terminal",
	Long:  `Starts an interactive session. Every turn is remembered; type 'exit' to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		app := NewApp(ctx, true)
		defer app.Close(ctx)

		g := app.NewGuard(ctx)
		provider := app.NewLLM(ctx)
		ag := app.NewAgent(g, provider)

		chat, err := cli.NewReadLine(ag, app.NewCommands(ag, g, provider), app.cfg.GetRuntimePath())
		if err != nil {
			return err
		}

		services := []srv.Service{
			guard.NewWatcher(g, app.cfg.GetGuardPath()),
			app.NewWarmer(),
			chat,
		}
		failed := srv.StartServices(ctx, services)

		var runErr error
		select {
		case <-chat.Done():
		case runErr = <-failed:
		case <-ctx.Done():
		}
		stop()

		srv.ShutdownServices(ctx, services)

		// the loop ends the session on its way out
		<-chat.Done()
		logger.Debug().Msg("chat finished")
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
