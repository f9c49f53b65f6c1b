package cmd

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"

	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/logging"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	logFile string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View Argus logs",
		Long: `View and tail the Argus log file (~/.argus/logs/argus.log).

By default the last 50 entries are shown. Use -f to follow new entries as
they are written.`,
		Example: `  argus logs
  argus logs -n 200 --level warn
  argus logs -f --filter search_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show entries matching this regular expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")
	return cmd
}

func runLogs(ctx context.Context, stdout, stderr io.Writer, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return argerr.New(argerr.ErrCodeFileNotFound, err.Error(), err)
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return argerr.New(argerr.ErrCodeInvalidPattern, "invalid filter pattern", err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor,
	}, stdout)

	_, _ = fmt.Fprintf(stderr, "Log file: %s\n", path)
	if opts.follow {
		_, _ = fmt.Fprintln(stderr, "Following... (Ctrl+C to stop)")
	}
	_, _ = fmt.Fprintln(stderr, "---")

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}
	return followLogs(ctx, viewer, path, stdout, stderr)
}

func followLogs(ctx context.Context, viewer *logging.Viewer, path string, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan logging.Entry, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case e := <-entries:
			_, _ = fmt.Fprintln(stdout, viewer.Format(e))
		case err := <-errCh:
			if err != nil || ctx.Err() == nil {
				return err
			}
			return stopped(stderr)
		case <-ctx.Done():
			return stopped(stderr)
		}
	}
}

func stopped(stderr io.Writer) error {
	_, _ = fmt.Fprintln(stderr, "\n---")
	_, _ = fmt.Fprintln(stderr, "Stopped.")
	return nil
}
