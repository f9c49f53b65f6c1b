package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/cache"
	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/output"
)

type cacheFlags struct {
	directory string
	indexFile string
	jsonOut   bool
}

func (f *cacheFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.directory, "directory", "d", ".", "Search root the index belongs to")
	cmd.Flags().StringVar(&f.indexFile, "index-file", "", "Index file path (default: <directory>/"+cache.DefaultFileName+")")
}

// path resolves the index file the same way a search of directory would.
func (f *cacheFlags) path() (string, error) {
	root, err := filepath.Abs(f.directory)
	if err != nil {
		return "", argerr.New(argerr.ErrCodeInvalidPath, err.Error(), err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", argerr.ConfigError("failed to load configuration", err)
	}
	settings := cfg.CacheSettings()
	if f.indexFile != "" {
		settings.CacheFile = f.indexFile
	}
	return settings.Path(root), nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the content index",
		Long: `The content index stores extracted text so unchanged PDFs, documents and
images are not read again. Searches write it with --save-index and read it
with --use-index.`,
	}
	cmd.AddCommand(newCacheInfoCmd())
	cmd.AddCommand(newCachePruneCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	f := &cacheFlags{}
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show index version, timestamps and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := f.path()
			if err != nil {
				return err
			}
			info, err := output.LoadCacheInfo(path)
			if err != nil {
				return cacheLoadError(path, err)
			}
			if f.jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), info)
			}
			output.New(cmd.OutOrStdout()).CacheInfo(info)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newCachePruneCmd() *cobra.Command {
	f := &cacheFlags{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove entries for files that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := f.path()
			if err != nil {
				return err
			}
			c, err := cache.Load(path)
			if err != nil {
				return cacheLoadError(path, err)
			}

			removed := c.PruneMissing()
			if err := c.Save(path); err != nil {
				return argerr.New(argerr.ErrCodeCacheSave, "failed to save index", err).
					WithDetail("path", path)
			}
			output.New(cmd.OutOrStdout()).Successf("Pruned %d entries, %d remaining", removed, c.Len())
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	f := &cacheFlags{}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the index file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := f.path()
			if err != nil {
				return err
			}
			if err := cache.Remove(path); err != nil {
				return argerr.New(argerr.ErrCodeCacheSave, "failed to delete index", err).
					WithDetail("path", path)
			}
			output.New(cmd.OutOrStdout()).Successf("Removed %s", path)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

// cacheLoadError maps a cache.Load failure to a CLI error.
func cacheLoadError(path string, err error) error {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return argerr.New(argerr.ErrCodeFileNotFound, fmt.Sprintf("no index at %s", path), err).
			WithSuggestion("Create one with 'argus search <pattern> --save-index'")
	case errors.Is(err, cache.ErrVersionMismatch):
		return argerr.New(argerr.ErrCodeCacheVersion, err.Error(), err).
			WithSuggestion("Run 'argus cache clear' and rebuild the index")
	default:
		return argerr.New(argerr.ErrCodeCacheLoad, err.Error(), err).
			WithDetail("path", path)
	}
}
