package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tag <id>",
		Short: "Edit a memory's tags, kind or content",
		Args:  cobra.ExactArgs(1),
		Run:   runTag,
	}

	cmd.Flags().StringP("add", "t", "", "Comma-separated tags to add")
	cmd.Flags().String("remove", "", "Comma-separated tags to remove")
	cmd.Flags().String("kind", "", "New kind")
	cmd.Flags().String("content", "", "New content")

	RootCmd.AddCommand(cmd)
}

func runTag(cmd *cobra.Command, args []string) {
	add, _ := cmd.Flags().GetString("add")
	remove, _ := cmd.Flags().GetString("remove")
	kind, _ := cmd.Flags().GetString("kind")
	content, _ := cmd.Flags().GetString("content")
	id := args[0]

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	cur, ok := sys.Get(cmd.Context(), id)
	if !ok {
		exitErr("tag", fmt.Errorf("memory %s not found", id))
	}

	var p model.Patch
	if add != "" || remove != "" {
		drop := map[string]bool{}
		for _, t := range model.NormalizeTags(splitTags(remove)) {
			drop[t] = true
		}
		tags := []string{}
		for _, t := range append(cur.Tags, splitTags(add)...) {
			if !drop[t] {
				tags = append(tags, t)
			}
		}
		p.Tags = &tags
	}
	if kind != "" {
		k := model.Kind(kind)
		p.Kind = &k
	}
	if content != "" {
		p.Content = &content
	}

	r, _, err := sys.Update(cmd.Context(), id, p)
	if err != nil {
		exitErr("tag", err)
	}
	printJSON(cmd.OutOrStdout(), r)
}
