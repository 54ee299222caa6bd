package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints the build version.
func NewVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "Print the scalebench version",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "scalebench %s\n", formatVersion(version, commit, date))
			if err != nil {
				return fmt.Errorf("write version: %w", err)
			}

			return nil
		},
	}
}
