package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/memory"
	"github.com/rcliao/agentmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Record a memory",
		Long:  "Record a memory. Content can be a positional arg or piped via stdin. Importance is scored unless --importance is set.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent id (required)")
	cmd.Flags().StringP("project", "p", "", "Project id")
	cmd.Flags().String("kind", "episodic", "Kind: episodic, semantic, procedural, project_context")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().StringP("importance", "i", "", "Override: trivial, low, medium, high, critical")
	cmd.Flags().String("context", "", "JSON context object")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	kind, _ := cmd.Flags().GetString("kind")
	tags, _ := cmd.Flags().GetString("tags")
	impStr, _ := cmd.Flags().GetString("importance")
	ctxStr, _ := cmd.Flags().GetString("context")

	content := strings.TrimSpace(readInput(args))
	if content == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var imp *model.Importance
	if impStr != "" {
		i, err := model.ParseImportance(impStr)
		if err != nil {
			exitErr("add", err)
		}
		imp = &i
	}

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	id, err := sys.Add(cmd.Context(), memory.AddParams{
		Content:    content,
		AgentID:    agent,
		ProjectID:  project,
		Context:    parseObject("context", ctxStr),
		Tags:       splitTags(tags),
		Kind:       model.Kind(kind),
		Importance: imp,
	})
	if err != nil {
		exitErr("add", err)
	}
	r, _ := sys.Get(cmd.Context(), id)
	printJSON(cmd.OutOrStdout(), r)
}
