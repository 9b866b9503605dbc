package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Run:   runExport,
	}

	cmd.Flags().StringP("project", "p", "", "Only memories of this project")
	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	out, _ := cmd.Flags().GetString("out")

	sys, _ := openSystem(cmd)
	defer closeSystem(sys)

	doc, err := sys.Export(cmd.Context(), project)
	if err != nil {
		exitErr("export", err)
	}

	if out == "" {
		printJSON(cmd.OutOrStdout(), doc)
		return
	}
	f, err := os.Create(out)
	if err != nil {
		exitErr("create output", err)
	}
	defer f.Close()
	printJSON(f, doc)
}
