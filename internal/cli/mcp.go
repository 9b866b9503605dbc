package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/mcpserver"
	"github.com/rcliao/agentmem/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve memory tools over MCP stdio",
		Long:  "Run an MCP server on stdin/stdout. Memory is consolidated every orchestrator.sweep_interval and flushed on exit.",
		Run:   runMCP,
	}

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	log := newLogger(cfg)
	sys, err := memory.Open(cmd.Context(), cfg, log)
	if err != nil {
		exitErr("open memory", err)
	}
	defer sys.Close()

	log.Info("mcp server starting", "session", sys.SessionID(), "backend", cfg.LongTerm.Backend)
	if err := mcpserver.Serve(cmd.Context(), sys, Version, cfg.Orchestrator.SweepInterval, log); err != nil {
		exitErr("mcp", err)
	}
}
