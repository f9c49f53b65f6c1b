package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/history"
	"github.com/Aman-CERP/argus/internal/output"
)

const historyTopPatterns = 5

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		stats      bool
		clearAll   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous searches",
		Long: `List previous searches, newest first. Every search records its pattern,
directory, flags, counts and duration in ~/.argus/history.db unless
--no-history is given or history.enabled is false.`,
		Example: `  argus history
  argus history --limit 5 --json
  argus history --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return argerr.ConfigError("failed to load configuration", err)
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return argerr.New(argerr.ErrCodeHistoryStore, "failed to open history", err).
					WithDetail("path", cfg.History.Path)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			out := output.New(cmd.OutOrStdout())

			switch {
			case clearAll:
				if err := store.Clear(ctx); err != nil {
					return argerr.New(argerr.ErrCodeHistoryStore, "failed to clear history", err)
				}
				out.Success("History cleared")
				return nil

			case stats:
				summary, err := store.Summarize(ctx, historyTopPatterns)
				if err != nil {
					return argerr.New(argerr.ErrCodeHistoryStore, "failed to summarize history", err)
				}
				if jsonOutput {
					return output.WriteJSON(cmd.OutOrStdout(), summary)
				}
				out.HistorySummary(summary)
				return nil
			}

			runs, err := store.List(ctx, limit)
			if err != nil {
				return argerr.New(argerr.ErrCodeHistoryStore, "failed to read history", err)
			}
			if jsonOutput {
				return output.WriteJSON(cmd.OutOrStdout(), runs)
			}
			out.History(runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of searches to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show aggregate statistics")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded searches")
	return cmd
}
