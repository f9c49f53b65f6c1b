package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/history"
	"github.com/Aman-CERP/argus/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		directory string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server exposing search tools",
		Long: `Run a Model Context Protocol server over stdio. AI assistants can call
the 'search' tool to search files under the directory and 'cache_info' to
inspect an index. Searches never leave the directory.

Logs go to ~/.argus/logs/argus.log; stdout carries only protocol messages.`,
		Example: `  argus serve
  argus serve -d ~/projects/docs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := filepath.Abs(directory)
			if err != nil {
				return argerr.New(argerr.ErrCodeInvalidPath, err.Error(), err)
			}
			cfg, err := config.Load(root)
			if err != nil {
				return argerr.ConfigError("failed to load configuration", err)
			}

			var opts []mcp.Option
			if cfg.History.Enabled {
				store, err := history.Open(cfg.History.Path)
				if err != nil {
					slog.Warn("history_open_failed", slog.String("error", err.Error()))
				} else {
					defer func() { _ = store.Close() }()
					opts = append(opts, mcp.WithHistory(store))
				}
			}

			server, err := mcp.NewServer(cfg, root, opts...)
			if err != nil {
				return argerr.New(argerr.ErrCodeServeFailed, "failed to create MCP server", err)
			}
			if err := server.Serve(cmd.Context(), transport); err != nil {
				return argerr.New(argerr.ErrCodeServeFailed, err.Error(), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio")
	cmd.Flags().StringVarP(&directory, "directory", "d", ".", "Root directory searches are confined to")
	return cmd
}
