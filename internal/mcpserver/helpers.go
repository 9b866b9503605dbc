package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agentmem/internal/model"
)

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// objectArg extracts a JSON object argument.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

// tagsArg splits a comma-separated tag list.
func tagsArg(req mcp.CallToolRequest, key string) []string {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func importanceArg(req mcp.CallToolRequest, key string) (*model.Importance, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	imp, err := model.ParseImportance(raw)
	if err != nil {
		return nil, err
	}
	return &imp, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatRecords(b *strings.Builder, recs []*model.Record) {
	for i, r := range recs {
		fmt.Fprintf(b, "[%d] %s (%s, %s) by %s", i+1, r.ID, r.Kind, r.Importance, r.AgentID)
		if r.RelevanceScore > 0 {
			fmt.Fprintf(b, " score %.2f", r.RelevanceScore)
		}
		fmt.Fprintf(b, "\n    %s\n", snippet(r.Content, 300))
		if len(r.Tags) > 0 {
			fmt.Fprintf(b, "    tags: %s\n", strings.Join(r.Tags, ", "))
		}
		b.WriteString("\n")
	}
}
