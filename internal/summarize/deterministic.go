package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/agentmem/internal/model"
)

// SnippetLen is the rune length each record is truncated to in a
// deterministic summary.
const SnippetLen = 120

// Deterministic summarizes without any model call: records are grouped by
// agent, each contributing a truncated snippet, followed by the most frequent
// non-stopword terms.
type Deterministic struct {
	Now func() time.Time
}

// NewDeterministic returns a Deterministic using the wall clock.
func NewDeterministic() *Deterministic {
	return &Deterministic{Now: time.Now}
}

// Name identifies the summarizer in summary context.
func (d *Deterministic) Name() string { return "deterministic" }

// Summarize implements Summarizer.
func (d *Deterministic) Summarize(_ context.Context, recs []*model.Record) (*model.Record, error) {
	if err := checkInput(recs); err != nil {
		return nil, err
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	byAgent := map[string][]*model.Record{}
	for _, r := range recs {
		a := r.AgentID
		if a == "" {
			a = SystemAgent
		}
		byAgent[a] = append(byAgent[a], r)
	}
	agents := agentsOf(recs)

	texts := make([]string, len(recs))
	for i, r := range recs {
		texts[i] = r.Content
	}
	topics := topicWords(texts)

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %d interactions from %d agent(s)", len(recs), len(agents))
	if len(topics) > 0 {
		fmt.Fprintf(&b, ". Key topics: %s", strings.Join(topics, ", "))
	}
	b.WriteString(".\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "%s:\n", a)
		for _, r := range byAgent[a] {
			fmt.Fprintf(&b, "  - %s\n", truncate(r.Content, SnippetLen))
		}
	}
	return envelope(recs, strings.TrimRight(b.String(), "\n"), d.Name(), now()), nil
}
