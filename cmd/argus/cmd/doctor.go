package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/config"
	argerr "github.com/Aman-CERP/argus/internal/errors"
	"github.com/Aman-CERP/argus/internal/output"
	"github.com/Aman-CERP/argus/internal/preflight"
)

type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd() *cobra.Command {
	var (
		directory  string
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can run a search",
		Long: `Check the search root, index location, disk space, open file limit,
OCR backends and history database.

Exits non-zero when a required check fails. OCR is only required when
ocr.enabled is set.`,
		Example: `  argus doctor
  argus doctor -d ~/Documents -v
  argus doctor --json`,
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

			target := preflight.Target{
				Root:       root,
				CachePath:  cfg.CacheSettings().Path(root),
				OCR:        cfg.OCRSettings(),
				OCREnabled: cfg.OCR.Enabled,
			}
			if cfg.History.Enabled {
				target.HistoryPath = cfg.History.Path
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
			)
			results := checker.RunAll(cmd.Context(), target)

			if jsonOutput {
				report := doctorReport{Status: checker.SummaryStatus(results), Checks: results}
				if err := output.WriteJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return argerr.New(argerr.ErrCodeCheckFailed, "system check failed", nil).
					WithSuggestion("Run 'argus doctor -v' for details")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", ".", "Search root to check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")
	return cmd
}
