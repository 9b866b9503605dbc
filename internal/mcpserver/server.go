// Package mcpserver exposes a memory.System as MCP tools over stdio.
//
// Each tool follows the same shape: a struct holding the System, a
// Definition returning the mcp.Tool schema and a Handle processing the call.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/memory"
)

// Tool is one registrable MCP tool.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns every tool backed by sys.
func Tools(sys *memory.System) []Tool {
	return []Tool{
		NewAddTool(sys),
		NewSearchTool(sys),
		NewContextTool(sys),
		NewHandoffTool(sys),
		NewConsolidateTool(sys),
		NewStatsTool(sys),
	}
}

// New creates the MCP server with all memory tools registered.
func New(sys *memory.System, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"agentmem",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range Tools(sys) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

const instructions = `agentmem is a layered memory for multi-agent work.
Record progress with memory_add, pass work on with memory_handoff, and call
memory_context when an agent starts so it sees recent work, handoffs and
working memory. memory_search answers free-text questions.`

// Serve runs the stdio server until the client disconnects. While it runs,
// sys is consolidated every interval; on return it is flushed so nothing in
// short-term memory is lost.
func Serve(ctx context.Context, sys *memory.System, version string, interval time.Duration, log logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	if interval > 0 {
		go func() {
			defer close(done)
			sweepLoop(ctx, sys, interval)
		}()
	} else {
		close(done)
	}

	err := server.ServeStdio(New(sys, version))
	cancel()
	<-done

	st := sys.Flush(context.Background())
	log.Info("mcp server stopped", "flushed", st.Promoted, "failed", st.PromotionFailed)
	return err
}

func sweepLoop(ctx context.Context, sys *memory.System, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sys.Consolidate(ctx)
		}
	}
}
