package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old low-importance memories",
		Long:  "Delete long-term memories older than --days whose importance is below cleanup.min_importance. Critical memories are never deleted.",
		Run:   runCleanup,
	}

	cmd.Flags().Int("days", 30, "Age threshold in days")

	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	n, err := sys.Cleanup(cmd.Context(), days)
	if err != nil {
		exitErr("cleanup", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"deleted":%d}`+"\n", n)
}
