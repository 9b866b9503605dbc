package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	printJSON(cmd.OutOrStdout(), sys.Stats(cmd.Context()))
}
