package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "handoff [summary]",
		Short: "Record work passing between agents",
		Run:   runHandoff,
	}

	cmd.Flags().String("from", "", "Agent handing off (required)")
	cmd.Flags().String("to", "", "Agent receiving the work (required)")
	cmd.Flags().StringP("project", "p", "", "Project id")
	cmd.Flags().String("data", "", "JSON handoff data")

	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	RootCmd.AddCommand(cmd)
}

func runHandoff(cmd *cobra.Command, args []string) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	project, _ := cmd.Flags().GetString("project")
	dataStr, _ := cmd.Flags().GetString("data")

	data := parseObject("data", dataStr)
	if summary := readInput(args); summary != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["summary"] = summary
	}

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	id, err := sys.RecordHandoff(cmd.Context(), from, to, project, data)
	if err != nil {
		exitErr("handoff", err)
	}
	r, _ := sys.Get(cmd.Context(), id)
	printJSON(cmd.OutOrStdout(), r)
}
