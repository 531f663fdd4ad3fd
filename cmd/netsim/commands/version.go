package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvarga/netsim/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print netsim build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full("netsim"))
		},
	}
}
