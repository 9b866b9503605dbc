package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agentmem/internal/memory"
	"github.com/rcliao/agentmem/internal/store"
)

func newSystem(t *testing.T) *memory.System {
	t.Helper()
	lt, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lt.Close() })
	// A fixed clock keeps promotion independent of test duration.
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sys, err := memory.New(memory.Options{Store: lt, Now: func() time.Time { return now }})
	require.NoError(t, err)
	return sys
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	if tc, ok := r.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestToolDefinitions(t *testing.T) {
	sys := newSystem(t)
	want := []string{"memory_add", "memory_search", "memory_context", "memory_handoff", "memory_consolidate", "memory_stats"}
	var got []string
	for _, tool := range Tools(sys) {
		got = append(got, tool.Definition().Name)
	}
	assert.Equal(t, want, got)
	assert.NotNil(t, New(sys, "test"))
}

func TestAddRequiresContentAndAgent(t *testing.T) {
	tool := NewAddTool(newSystem(t))
	ctx := context.Background()

	r, err := tool.Handle(ctx, makeReq(map[string]any{"agent_id": "a"}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "content")

	r, err = tool.Handle(ctx, makeReq(map[string]any{"content": "x"}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "agent_id")
}

func TestAddRejectsBadImportance(t *testing.T) {
	tool := NewAddTool(newSystem(t))
	r, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"content": "x", "agent_id": "a", "importance": "enormous",
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
}

func TestAddThenSearch(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	r, err := NewAddTool(sys).Handle(ctx, makeReq(map[string]any{
		"content":    "Migrated billing service to postgres",
		"agent_id":   "backend",
		"project":    "p1",
		"tags":       "db,migration",
		"importance": "high",
		"context":    map[string]any{"type": "agent_completion", "success": true},
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "importance: high")

	r, err = NewSearchTool(sys).Handle(ctx, makeReq(map[string]any{"query": "billing postgres", "limit": float64(5)}))
	require.NoError(t, err)
	require.False(t, r.IsError)
	text := resultText(r)
	assert.Contains(t, text, "Found 1 memories")
	assert.Contains(t, text, "Migrated billing service")
	assert.Contains(t, text, "tags: db, migration")
}

func TestSearchNoResults(t *testing.T) {
	r, err := NewSearchTool(newSystem(t)).Handle(context.Background(), makeReq(map[string]any{"query": "nothing"}))
	require.NoError(t, err)
	assert.Equal(t, "No memories found.", resultText(r))
}

func TestHandoffThenContext(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	r, err := NewHandoffTool(sys).Handle(ctx, makeReq(map[string]any{"from_agent": "planner"}))
	require.NoError(t, err)
	assert.True(t, r.IsError)

	r, err = NewHandoffTool(sys).Handle(ctx, makeReq(map[string]any{
		"from_agent": "planner",
		"to_agent":   "coder",
		"project":    "p1",
		"summary":    "design approved",
		"data":       map[string]any{"files": []any{"api.go"}},
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "planner -> coder")

	r, err = NewContextTool(sys).Handle(ctx, makeReq(map[string]any{"agent_id": "planner", "project": "p1"}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))

	var ac memory.AgentContext
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &ac))
	require.NotEmpty(t, ac.Recent)
	assert.True(t, strings.HasPrefix(ac.Recent[0].Content, "Handoff from planner to coder: design approved"))
	assert.Equal(t, sys.SessionID(), ac.Session.ID)
}

func TestContextQueryMode(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	_, err := sys.Add(ctx, memory.AddParams{Content: "kubernetes cluster upgraded", AgentID: "ops"})
	require.NoError(t, err)

	r, err := NewContextTool(sys).Handle(ctx, makeReq(map[string]any{
		"agent_id": "ops", "query": "kubernetes", "budget": float64(100),
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))

	var res memory.ContextResult
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
	assert.Equal(t, 100, res.Budget)
	require.Len(t, res.Items, 1)
	assert.LessOrEqual(t, res.Used, res.Budget)
}

func TestContextQueryModeRanksForAgent(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	_, err := sys.Add(ctx, memory.AddParams{Content: "kubernetes ingress notes", AgentID: "ops"})
	require.NoError(t, err)
	_, err = sys.Add(ctx, memory.AddParams{Content: "kubernetes dashboard notes", AgentID: "qa"})
	require.NoError(t, err)

	assemble := func(agent string) memory.ContextResult {
		r, err := NewContextTool(sys).Handle(ctx, makeReq(map[string]any{"agent_id": agent, "query": "kubernetes notes"}))
		require.NoError(t, err)
		require.False(t, r.IsError, resultText(r))
		var res memory.ContextResult
		require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
		require.Len(t, res.Items, 2)
		return res
	}
	assert.Equal(t, "ops", assemble("ops").Items[0].AgentID)
	assert.Equal(t, "qa", assemble("qa").Items[0].AgentID)
}

func TestContextRequiresAgent(t *testing.T) {
	r, err := NewContextTool(newSystem(t)).Handle(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
}

func TestConsolidateAndStats(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()
	_, err := NewAddTool(sys).Handle(ctx, makeReq(map[string]any{
		"content": "release checklist signed off", "agent_id": "qa", "importance": "high",
	}))
	require.NoError(t, err)

	r, err := NewConsolidateTool(sys).Handle(ctx, makeReq(nil))
	require.NoError(t, err)
	var sweep map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &sweep))
	assert.EqualValues(t, 1, sweep["promoted"])

	r, err = NewStatsTool(sys).Handle(ctx, makeReq(nil))
	require.NoError(t, err)
	var st memory.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &st))
	assert.Equal(t, 1, st.ShortTermCount)
	assert.Equal(t, 1, st.LongTermCount)
}

func TestIntArg(t *testing.T) {
	req := makeReq(map[string]any{"n": float64(3), "s": "x"})
	assert.Equal(t, 3, intArg(req, "n", 10))
	assert.Equal(t, 10, intArg(req, "s", 10))
	assert.Equal(t, 10, intArg(req, "missing", 10))
}
