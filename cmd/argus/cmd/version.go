package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/argus/internal/output"
	"github.com/Aman-CERP/argus/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version information including git commit, build date, and Go version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case shortOutput:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			case jsonOutput:
				return output.WriteJSON(cmd.OutOrStdout(), version.GetInfo())
			default:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")
	return cmd
}
