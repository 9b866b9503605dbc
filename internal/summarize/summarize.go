// Package summarize condenses a batch of short-term records into one summary
// record. Deterministic needs no network; the LLM-backed summarizers are
// wrapped with WithFallback so a backend failure never blocks eviction.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/model"
)

// Summarizer turns records into a single summary record. Implementations set
// content, tags and traceability context; importance is assigned by the
// caller.
type Summarizer interface {
	Summarize(ctx context.Context, recs []*model.Record) (*model.Record, error)
}

// Context keys added to summary records on top of the model ones.
const (
	CtxAgents     = "agents"
	CtxKeyTopics  = "key_topics"
	CtxSummarizer = "summarizer"
	TagSummary    = "summary"
	SystemAgent   = "system"
	topicCount    = 5
)

// envelope builds the summary record around content. It is shared by every
// summarizer so traceability fields are identical regardless of backend.
func envelope(recs []*model.Record, content, name string, now time.Time) *model.Record {
	ids := make([]string, 0, len(recs))
	texts := make([]string, 0, len(recs))
	var tags []string
	agents := agentsOf(recs)
	project := recs[0].ProjectID
	for _, r := range recs {
		ids = append(ids, r.ID)
		texts = append(texts, r.Content)
		tags = append(tags, r.Tags...)
		if r.ProjectID != project {
			project = ""
		}
	}
	topics := topicWords(texts)

	agent := SystemAgent
	if len(agents) == 1 {
		agent = agents[0]
	}
	return &model.Record{
		ID:        model.NewID(),
		Content:   content,
		Kind:      model.KindSummary,
		AgentID:   agent,
		ProjectID: project,
		Timestamp: now,
		Tags:      model.NormalizeTags(append(tags, TagSummary)),
		Context: map[string]any{
			model.CtxType:            model.TypeSummary,
			model.CtxSummarizedCount: len(recs),
			model.CtxOriginalIDs:     ids,
			CtxAgents:                agents,
			CtxKeyTopics:             topics,
			CtxSummarizer:            name,
		},
	}
}

func agentsOf(recs []*model.Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		a := r.AgentID
		if a == "" {
			a = SystemAgent
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

func topicWords(texts []string) []string {
	terms := keywords.Top(texts, topicCount)
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Word
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// prompt renders recs as the user message for LLM summarizers.
func prompt(recs []*model.Record) string {
	var b strings.Builder
	b.WriteString("Summarize the following agent interactions into a short paragraph that keeps decisions, ")
	b.WriteString("errors and open work. Reply with the summary only.\n\n")
	for _, r := range recs {
		agent := r.AgentID
		if agent == "" {
			agent = SystemAgent
		}
		fmt.Fprintf(&b, "- [%s] %s\n", agent, truncate(r.Content, 500))
	}
	return b.String()
}

func checkInput(recs []*model.Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("%w: nothing to summarize", model.ErrInvalidInput)
	}
	return nil
}
