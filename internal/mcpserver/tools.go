package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agentmem/internal/memory"
	"github.com/rcliao/agentmem/internal/model"
)

// AddTool handles memory_add.
type AddTool struct {
	sys *memory.System
}

// NewAddTool creates an AddTool.
func NewAddTool(sys *memory.System) *AddTool { return &AddTool{sys: sys} }

func (t *AddTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_add",
		mcp.WithDescription("Record an agent interaction, decision or observation. Importance is scored automatically unless given."),
		mcp.WithString("content", mcp.Required(), mcp.Description("What happened")),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent recording the memory")),
		mcp.WithString("project", mcp.Description("Project id")),
		mcp.WithString("kind", mcp.Description("episodic (default), semantic, procedural, project_context")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("importance", mcp.Description("Override: trivial, low, medium, high, critical")),
		mcp.WithObject("context", mcp.Description("Structured context, e.g. {\"type\": \"agent_completion\", \"success\": true}")),
	)
}

func (t *AddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	agent := req.GetString("agent_id", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	if agent == "" {
		return mcp.NewToolResultError("'agent_id' is required"), nil
	}
	imp, err := importanceArg(req, "importance")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := t.sys.Add(ctx, memory.AddParams{
		Content:    content,
		AgentID:    agent,
		ProjectID:  req.GetString("project", ""),
		Context:    objectArg(req, "context"),
		Tags:       tagsArg(req, "tags"),
		Kind:       model.Kind(req.GetString("kind", "")),
		Importance: imp,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add failed: %v", err)), nil
	}
	r, _ := t.sys.Get(ctx, id)
	level := ""
	if r != nil {
		level = r.Importance.String()
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory recorded (ID: %s, importance: %s)", id, level)), nil
}

// SearchTool handles memory_search.
type SearchTool struct {
	sys *memory.System
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(sys *memory.System) *SearchTool { return &SearchTool{sys: sys} }

func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription("Hybrid search over short and long-term memory. An empty query returns the most relevant recent memories."),
		mcp.WithString("query", mcp.Description("Free-text query")),
		mcp.WithString("agent_id", mcp.Description("Only memories by this agent")),
		mcp.WithString("project", mcp.Description("Only memories of this project")),
		mcp.WithString("kind", mcp.Description("Only memories of this kind")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 10)")),
	)
}

func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := t.sys.Search(ctx, memory.SearchParams{
		Query:     req.GetString("query", ""),
		AgentID:   req.GetString("agent_id", ""),
		ProjectID: req.GetString("project", ""),
		Kind:      model.Kind(req.GetString("kind", "")),
		Limit:     intArg(req, "limit", memory.DefaultSearchLimit),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText("No memories found."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n\n", len(recs))
	formatRecords(&b, recs)
	return mcp.NewToolResultText(b.String()), nil
}

// ContextTool handles memory_context.
type ContextTool struct {
	sys *memory.System
}

// NewContextTool creates a ContextTool.
func NewContextTool(sys *memory.System) *ContextTool { return &ContextTool{sys: sys} }

func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_context",
		mcp.WithDescription("Everything an agent needs to resume: recent work, handoffs, working memory. "+
			"With a query, returns a token-budgeted context block instead."),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent starting work")),
		mcp.WithString("project", mcp.Description("Project id")),
		mcp.WithString("query", mcp.Description("Assemble a budgeted context for this query")),
		mcp.WithNumber("budget", mcp.Description("Token budget for query mode (default 4000)")),
	)
}

func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent := req.GetString("agent_id", "")
	if agent == "" {
		return mcp.NewToolResultError("'agent_id' is required"), nil
	}
	project := req.GetString("project", "")

	if query := req.GetString("query", ""); query != "" {
		res, err := t.sys.AssembleContext(ctx, memory.ContextParams{
			Query:     query,
			ForAgent:  agent,
			ProjectID: project,
			Budget:    intArg(req, "budget", memory.DefaultBudget),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("context failed: %v", err)), nil
		}
		return jsonResult(res)
	}

	ac, err := t.sys.GetAgentContext(ctx, agent, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context failed: %v", err)), nil
	}
	return jsonResult(ac)
}

// HandoffTool handles memory_handoff.
type HandoffTool struct {
	sys *memory.System
}

// NewHandoffTool creates a HandoffTool.
func NewHandoffTool(sys *memory.System) *HandoffTool { return &HandoffTool{sys: sys} }

func (t *HandoffTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_handoff",
		mcp.WithDescription("Record work passing from one agent to another. Handoffs are always high importance."),
		mcp.WithString("from_agent", mcp.Required(), mcp.Description("Agent handing off")),
		mcp.WithString("to_agent", mcp.Required(), mcp.Description("Agent receiving the work")),
		mcp.WithString("project", mcp.Description("Project id")),
		mcp.WithString("summary", mcp.Description("What was done and what comes next")),
		mcp.WithObject("data", mcp.Description("Extra structured handoff data")),
	)
}

func (t *HandoffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from_agent", "")
	to := req.GetString("to_agent", "")
	if from == "" || to == "" {
		return mcp.NewToolResultError("'from_agent' and 'to_agent' are required"), nil
	}
	data := objectArg(req, "data")
	if summary := req.GetString("summary", ""); summary != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["summary"] = summary
	}
	id, err := t.sys.RecordHandoff(ctx, from, to, req.GetString("project", ""), data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("handoff failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Handoff %s -> %s recorded (ID: %s)", from, to, id)), nil
}

// ConsolidateTool handles memory_consolidate.
type ConsolidateTool struct {
	sys *memory.System
}

// NewConsolidateTool creates a ConsolidateTool.
func NewConsolidateTool(sys *memory.System) *ConsolidateTool { return &ConsolidateTool{sys: sys} }

func (t *ConsolidateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_consolidate",
		mcp.WithDescription("Run a consolidation sweep: promote important memories, summarize and drop expired ones."),
	)
}

func (t *ConsolidateTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.sys.Consolidate(ctx))
}

// StatsTool handles memory_stats.
type StatsTool struct {
	sys *memory.System
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(sys *memory.System) *StatsTool { return &StatsTool{sys: sys} }

func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription("Counts for short-term, working and long-term memory."),
	)
}

func (t *StatsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.sys.Stats(ctx))
}
