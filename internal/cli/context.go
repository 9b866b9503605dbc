package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show what an agent needs to resume work",
		Long: "Without --query, prints the agent's recent work, handoffs and relevant memories. " +
			"With --query, assembles the best matching memories into a token budget.",
		Run: runContext,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent id (required)")
	cmd.Flags().StringP("project", "p", "", "Project id")
	cmd.Flags().StringP("query", "q", "", "Assemble a budgeted context for this query")
	cmd.Flags().IntP("budget", "b", memory.DefaultBudget, "Token budget for --query")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	query, _ := cmd.Flags().GetString("query")
	budget, _ := cmd.Flags().GetInt("budget")

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	if query != "" {
		res, err := sys.AssembleContext(cmd.Context(), memory.ContextParams{
			Query:     query,
			ProjectID: project,
			Budget:    budget,
		})
		if err != nil {
			exitErr("context", err)
		}
		printJSON(cmd.OutOrStdout(), res)
		return
	}

	ac, err := sys.GetAgentContext(cmd.Context(), agent, project)
	if err != nil {
		exitErr("context", err)
	}
	printJSON(cmd.OutOrStdout(), ac)
}
