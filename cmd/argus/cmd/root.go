// Package cmd provides the CLI commands for Argus.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/logging"
	"github.com/Aman-CERP/argus/internal/profiling"
	"github.com/Aman-CERP/argus/pkg/version"
)

// Persistent flags.
var (
	debugMode    bool
	profileCPU   string
	profileMem   string
	profileTrace string

	profileSession *profiling.Session
	loggingCleanup func()
)

// NewRootCmd creates the root command for the argus CLI. A bare pattern
// argument runs a search.
func NewRootCmd() *cobra.Command {
	opts := newSearchFlags()

	cmd := &cobra.Command{
		Use:   "argus [pattern]",
		Short: "Search text, code, PDFs, DOCX and images from the terminal",
		Long: `Argus searches a directory tree for a literal or regular-expression
pattern. Text and code files are read directly, PDFs and DOCX documents are
converted to text, and images or scanned PDFs can be read with OCR.

Results are ranked by relevance. In an interactive terminal a selector lets
you open a result with its default application.

'argus <pattern>' is shorthand for 'argus search <pattern>'.`,
		Example: `  argus "TODO"
  argus search "func \w+Handler" -r -e go
  argus search invoice -d ~/Documents -o -p
  argus search error -f json -n`,
		Version:       version.Short(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runSearch(cmd.Context(), cmd, joinPattern(args), opts)
		},
	}
	cmd.SetVersionTemplate("argus version {{.Version}}\n")

	opts.bind(cmd)

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log at debug level to ~/.argus/logs/")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// startProfilingAndLogging installs the file logger and starts requested
// profiles. Logging never writes to the terminal.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	cleanup, err := logging.SetupDefault(configuredLogLevel(), debugMode)
	if err != nil {
		logging.Discard()
	} else {
		loggingCleanup = cleanup
	}
	if debugMode {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}

	opts := profiling.Options{CPU: profileCPU, Mem: profileMem, Trace: profileTrace}
	if opts.Enabled() {
		profileSession, err = profiling.Start(opts)
		if err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}
	return nil
}

// stopProfilingAndLogging flushes profiles and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		profileSession = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
		logging.Discard()
	}
	return err
}

// configuredLogLevel reads log_level from the config visible from the
// working directory, falling back to info.
func configuredLogLevel() string {
	cfg, err := config.Load(".")
	if err != nil {
		return "info"
	}
	return cfg.LogLevel
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	// PersistentPostRunE does not run when RunE fails.
	_ = stopProfilingAndLogging(root, nil)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	_, _ = fmt.Fprint(os.Stderr, argerr.FormatForCLI(err))
	return 1
}
