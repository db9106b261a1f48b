package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/saxil/mareen/internal/service/ui"
	"github.com/spf13/cobra"
)

var (
	sessionsLimit int
	searchLimit   int
	browseLimit   int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and move conversation memory",
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session and message counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		st, err := app.store.Statistics(ctx)
		if err != nil {
			return err
		}
		rs, err := app.scorer.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStats(st))
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderRetrievalStats(rs))
		return nil
	},
}

var memorySessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		sessions, err := app.store.ListSessions(ctx, sessionsLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderSessions(sessions))
		return nil
	},
}

var memoryViewCmd = &cobra.Command{
	Use:   "view <session-id>",
	Short: "Print the transcript of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		s, err := app.store.GetSession(ctx, args[0])
		if err != nil {
			return err
		}
		msgs, err := app.store.History(ctx, s.ID, 0)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderMessages(s, msgs))
		return nil
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find messages containing text (case-insensitive)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		query := strings.Join(args, " ")
		results, err := app.store.Search(ctx, query, searchLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderSearch(query, results))
		return nil
	},
}

var memoryRecallCmd = &cobra.Command{
	Use:   "recall <text>",
	Short: "Show the memories retrieval would surface for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, true)
		defer app.Close(ctx)

		mems, err := app.scorer.Retrieve(ctx, strings.Join(args, " "), app.scorer.DefaultOptions())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderMemories(mems))
		return nil
	},
}

var memoryExportCmd = &cobra.Command{
	Use:   "export <session-id> [file]",
	Short: "Write a session as JSON to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		if len(args) == 1 {
			return app.store.Export(ctx, args[0], cmd.OutOrStdout())
		}

		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := app.store.Export(ctx, args[0], f); err != nil {
			f.Close()
			os.Remove(args[1])
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.Success("Exported "+args[0]+" to "+args[1]))
		return nil
	},
}

var memoryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a session previously written by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		id, err := app.store.Import(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.Success("Imported session "+id))
		return nil
	},
}

var memoryBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse sessions interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, false)
		defer app.Close(ctx)

		return ui.RunBrowser(ctx, app.store, browseLimit)
	},
}

func init() {
	memorySessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 10, "number of sessions to list")
	memorySearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "maximum number of matches")
	memoryBrowseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 100, "number of sessions to load")

	memoryCmd.AddCommand(
		memoryStatsCmd,
		memorySessionsCmd,
		memoryViewCmd,
		memorySearchCmd,
		memoryRecallCmd,
		memoryExportCmd,
		memoryImportCmd,
		memoryBrowseCmd,
	)
	rootCmd.AddCommand(memoryCmd)
}
