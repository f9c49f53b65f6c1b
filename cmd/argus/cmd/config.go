package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/configs"
	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Show and create Argus configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/argus/config.yaml or config.toml)
  3. Project config (.argus.yaml, .argus.yml or .argus.toml)
  4. Environment variables (ARGUS_*)
  5. Command-line flags`,
		Example: `  argus config show
  argus config show --format toml
  argus config init
  argus config path`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		format    string
		directory string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(directory)
			if err != nil {
				return argerr.ConfigError("failed to load configuration", err)
			}

			switch strings.ToLower(format) {
			case "json":
				return output.WriteJSON(cmd.OutOrStdout(), cfg)
			case "yaml", "toml":
				data, err := cfg.Marshal(format)
				if err != nil {
					return argerr.InternalError("failed to encode configuration", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				return argerr.New(argerr.ErrCodeInvalidFormat,
					fmt.Sprintf("unknown format %q", format), nil).
					WithSuggestion("Use yaml, toml or json")
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml or json")
	cmd.Flags().StringVarP(&directory, "directory", "d", ".", "Directory whose project config is included")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		toml   bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write a commented .argus.yaml holding the built-in defaults to the current
directory, or the user config file with --global. --toml writes the defaults
without comments. An existing file is kept unless
--force is given, in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			path := ".argus.yaml"
			if toml {
				path = ".argus.toml"
			}
			if global {
				path = filepath.Join(config.GetUserConfigDir(), "config"+filepath.Ext(path))
			}

			if fileExists(path) && !force {
				out.Warning("Configuration already exists")
				out.Statusf("📁", "Location: %s", path)
				out.Status("💡", "Use --force to overwrite it (a backup is kept)")
				return nil
			}

			backup, err := config.BackupFile(path)
			if err != nil {
				return argerr.New(argerr.ErrCodeConfigWrite, "failed to back up configuration", err)
			}

			if err := writeConfigTemplate(path, global); err != nil {
				return argerr.New(argerr.ErrCodeConfigWrite, "failed to write configuration", err).
					WithDetail("path", path)
			}

			out.Success("Created configuration")
			out.Statusf("📁", "Location: %s", path)
			if backup != "" {
				out.Statusf("💾", "Backup: %s", backup)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&toml, "toml", false, "Write TOML instead of YAML")
	cmd.Flags().BoolVar(&global, "global", false, "Write the user config instead of the project config")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "user:    %s\n", config.GetUserConfigPath())
			project := config.FindProjectConfig(".")
			if project == "" {
				project = "(none)"
			}
			_, _ = fmt.Fprintf(w, "project: %s\n", project)
			_, _ = fmt.Fprintf(w, "history: %s\n", config.DefaultHistoryPath())
			return nil
		},
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeConfigTemplate writes the commented YAML template, or the defaults as
// TOML.
func writeConfigTemplate(path string, global bool) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg := config.NewConfig()
		// The history path is machine-specific; leave it to the default.
		cfg.History.Path = ""
		return cfg.WriteFile(path)
	}

	tmpl := configs.ProjectConfigTemplate
	if global {
		tmpl = configs.UserConfigTemplate
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(tmpl), 0o644)
}
