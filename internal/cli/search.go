package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/memory"
	"github.com/rcliao/agentmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long:  "Hybrid search over short and long-term memory. Without a query, returns the most relevant recent memories.",
		Run:   runSearch,
	}

	cmd.Flags().StringP("agent", "a", "", "Filter by agent")
	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().String("kind", "", "Filter by kind")
	cmd.Flags().String("min-importance", "", "Minimum importance")
	cmd.Flags().IntP("limit", "l", memory.DefaultSearchLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	kind, _ := cmd.Flags().GetString("kind")
	minStr, _ := cmd.Flags().GetString("min-importance")
	limit, _ := cmd.Flags().GetInt("limit")

	var minImp model.Importance
	if minStr != "" {
		var err error
		if minImp, err = model.ParseImportance(minStr); err != nil {
			exitErr("search", err)
		}
	}

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	// A fresh process has an empty buffer, so only long-term can match.
	results, err := sys.Search(cmd.Context(), memory.SearchParams{
		Query:         strings.Join(args, " "),
		AgentID:       agent,
		ProjectID:     project,
		Kind:          model.Kind(kind),
		MinImportance: minImp,
		Limit:         limit,
		LongTermOnly:  true,
	})
	if err != nil {
		exitErr("search", err)
	}
	if results == nil {
		results = []*model.Record{}
	}
	printJSON(cmd.OutOrStdout(), results)
}
