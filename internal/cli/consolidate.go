package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Run one consolidation sweep",
		Run:   runConsolidate,
	}

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	printJSON(cmd.OutOrStdout(), sys.Consolidate(cmd.Context()))
}
