package memory

import (
	"context"
	"math"
	"sort"

	"github.com/rcliao/agentmem/internal/chunker"
	"github.com/rcliao/agentmem/internal/model"
)

// Context assembly defaults.
const (
	DefaultBudget   = 4000
	charsPerToken   = 4
	candidateLimit  = 50
	minExcerptChars = 100
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Query     string
	AgentID   string
	// ForAgent ranks for this agent without filtering authorship.
	ForAgent  string
	ProjectID string
	Kind      model.Kind
	// Budget is in tokens (1 token is about 4 chars).
	Budget int
}

// ContextItem is a packed record.
type ContextItem struct {
	ID         string  `json:"id"`
	AgentID    string  `json:"agent_id"`
	Kind       string  `json:"memory_kind"`
	Importance string  `json:"importance"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Excerpt    bool    `json:"excerpt,omitempty"`
}

// ContextResult is an assembled prompt context.
type ContextResult struct {
	Budget int           `json:"budget"`
	Used   int           `json:"used"`
	Items  []ContextItem `json:"items"`
}

// AssembleContext packs search results into a token budget, highest
// attention weight first. The first record that does not fit is excerpted
// on a natural break when enough room remains, and packing stops there.
func (s *System) AssembleContext(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	charBudget := budget * charsPerToken

	recs, err := s.Search(ctx, SearchParams{
		Query:     p.Query,
		AgentID:   p.AgentID,
		ForAgent:  p.ForAgent,
		ProjectID: p.ProjectID,
		Kind:      p.Kind,
		Limit:     candidateLimit,
	})
	if err != nil {
		return nil, err
	}
	result := &ContextResult{Budget: budget, Items: []ContextItem{}}
	if len(recs) == 0 {
		return result, nil
	}

	// Search order breaks attention ties.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].AttentionWeight > recs[j].AttentionWeight
	})

	used := 0
	for _, r := range recs {
		item := ContextItem{
			ID:         r.ID,
			AgentID:    r.AgentID,
			Kind:       string(r.Kind),
			Importance: r.Importance.String(),
			Content:    r.Content,
			Score:      math.Round(r.AttentionWeight*100) / 100,
		}
		if used+len(r.Content) <= charBudget {
			result.Items = append(result.Items, item)
			used += len(r.Content)
			continue
		}
		if remaining := charBudget - used; remaining >= minExcerptChars {
			item.Content = chunker.Prefix(r.Content, remaining-len("...")) + "..."
			item.Excerpt = true
			result.Items = append(result.Items, item)
			used += remaining
		}
		break
	}
	result.Used = used / charsPerToken
	return result, nil
}
