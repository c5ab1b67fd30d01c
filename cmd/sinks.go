package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	coremetrics "github.com/kilianp07/ersim/core/metrics"
)

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List the metrics sink types accepted in metrics.sinks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range coremetrics.SinkTypes() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sinksCmd)
}
