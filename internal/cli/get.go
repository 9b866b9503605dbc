package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	r, ok := sys.Get(cmd.Context(), args[0])
	if !ok {
		exitErr("get", fmt.Errorf("memory %s not found", args[0]))
	}
	printJSON(cmd.OutOrStdout(), r)
}
