// Package retrieval implements hybrid search: several strategies rank
// candidates independently, then their lists are merged and re-ranked.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/shortterm"
	"github.com/rcliao/agentmem/internal/store"
)

// Strategy names.
const (
	Semantic   = "semantic"
	Keyword    = "keyword"
	Contextual = "contextual"
	Temporal   = "temporal"
)

// Query is one retrieval request.
type Query struct {
	Text    string
	Filters model.Filters
	// Agent is the requesting agent used for affinity. It defaults to
	// Filters.AgentID.
	Agent            string
	Limit            int
	IncludeShortTerm bool
}

func (q Query) agent() string {
	if q.Agent != "" {
		return q.Agent
	}
	return q.Filters.AgentID
}

// Scored is a record with a strategy-local score in [0,1].
type Scored struct {
	Record *model.Record
	Score  float64
}

// Strategy produces one ranked list. Lists are ordered best first.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, q Query) ([]Scored, error)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortScored(list []Scored) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Record.Timestamp.Equal(b.Record.Timestamp) {
			return a.Record.Timestamp.After(b.Record.Timestamp)
		}
		return a.Record.ID < b.Record.ID
	})
}

func truncate(list []Scored, n int) []Scored {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}

// shortTerm returns the buffer records passing the query filters.
func shortTerm(buf *shortterm.Buffer, q Query) []*model.Record {
	if buf == nil || !q.IncludeShortTerm {
		return nil
	}
	var out []*model.Record
	for _, r := range buf.Snapshot() {
		if q.Filters.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SemanticStrategy delegates to the long-term store's own ranking.
type SemanticStrategy struct {
	Store store.Store
}

func (s *SemanticStrategy) Name() string { return Semantic }

func (s *SemanticStrategy) Retrieve(ctx context.Context, q Query) ([]Scored, error) {
	if s.Store == nil {
		return nil, nil
	}
	recs, err := s.Store.Search(ctx, store.SearchParams{Query: q.Text, Filters: q.Filters, Limit: q.Limit})
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}
	out := make([]Scored, len(recs))
	for i, r := range recs {
		out[i] = Scored{Record: r, Score: clamp01(r.RelevanceScore)}
	}
	return out, nil
}

// KeywordStrategy scores short-term records by query term frequency. An
// empty query ranks by importance.
type KeywordStrategy struct {
	Buffer *shortterm.Buffer
}

func (s *KeywordStrategy) Name() string { return Keyword }

func (s *KeywordStrategy) Retrieve(_ context.Context, q Query) ([]Scored, error) {
	terms := keywords.Tokenize(q.Text)
	var out []Scored
	for _, r := range shortTerm(s.Buffer, q) {
		score := r.Importance.Score()
		if len(terms) > 0 {
			score = keywords.TermFrequency(terms, r.Content)
			if score == 0 {
				continue
			}
		}
		out = append(out, Scored{Record: r, Score: clamp01(score)})
	}
	sortScored(out)
	return truncate(out, q.Limit), nil
}

// TemporalStrategy favors recent records from both tiers, scoring
// exp(-age/Window).
type TemporalStrategy struct {
	Buffer *shortterm.Buffer
	Store  store.Store
	// Window is the e-folding time of the recency score.
	Window time.Duration
	Now    func() time.Time
}

func (s *TemporalStrategy) Name() string { return Temporal }

func (s *TemporalStrategy) Retrieve(ctx context.Context, q Query) ([]Scored, error) {
	window := s.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	pool, err := candidates(ctx, s.Buffer, s.Store, q)
	if err != nil && len(pool) == 0 {
		return nil, fmt.Errorf("temporal: %w", err)
	}
	t := now()
	out := make([]Scored, 0, len(pool))
	for _, r := range pool {
		age := t.Sub(r.Timestamp)
		if age < 0 {
			age = 0
		}
		out = append(out, Scored{Record: r, Score: math.Exp(-age.Hours() / window.Hours())})
	}
	sortScored(out)
	return truncate(out, q.Limit), nil
}

// Affinity scores.
const (
	affinityOwn     = 1.0
	affinityHandoff = 0.5
	workingShare    = 0.6
	affinityShare   = 0.4
)

// ContextualStrategy boosts records that overlap the current working memory
// and records authored by, or handed off to, the requesting agent.
type ContextualStrategy struct {
	Buffer *shortterm.Buffer
	Store  store.Store
}

func (s *ContextualStrategy) Name() string { return Contextual }

func (s *ContextualStrategy) Retrieve(ctx context.Context, q Query) ([]Scored, error) {
	working := map[string]struct{}{}
	if s.Buffer != nil {
		for k, v := range s.Buffer.Working() {
			for w := range keywords.Set(k) {
				working[w] = struct{}{}
			}
			if str, ok := v.(string); ok {
				for w := range keywords.Set(str) {
					working[w] = struct{}{}
				}
			}
		}
	}
	agent := q.agent()
	if len(working) == 0 && agent == "" {
		return nil, nil
	}

	pool, err := candidates(ctx, s.Buffer, s.Store, q)
	if err != nil && len(pool) == 0 {
		return nil, fmt.Errorf("contextual: %w", err)
	}
	var out []Scored
	for _, r := range pool {
		var overlap float64
		if len(working) > 0 {
			overlap = keywords.Overlap(working, keywords.Set(r.Content))
		}
		var affinity float64
		switch {
		case agent == "":
		case r.AgentID == agent:
			affinity = affinityOwn
		case r.HasTag(model.TagHandoff) && r.ContextString(model.CtxToAgent) == agent:
			affinity = affinityHandoff
		}
		score := workingShare*overlap + affinityShare*affinity
		if score <= 0 {
			continue
		}
		out = append(out, Scored{Record: r, Score: clamp01(score)})
	}
	sortScored(out)
	return truncate(out, q.Limit), nil
}

// candidatePool bounds how many long-term records the list-based strategies
// consider per query.
const candidatePool = 100

// candidates merges filtered short-term records with the most recent
// long-term ones, preferring the short-term copy on id collisions. A query
// with keywords narrows the pool to records sharing at least one of them.
// When the long-term store fails the short-term records are still returned.
func candidates(ctx context.Context, buf *shortterm.Buffer, lt store.Store, q Query) ([]*model.Record, error) {
	recs := shortTerm(buf, q)
	var err error
	if lt != nil {
		seen := make(map[string]bool, len(recs))
		for _, r := range recs {
			seen[r.ID] = true
		}
		limit := candidatePool
		if q.Limit*5 > limit {
			limit = q.Limit * 5
		}
		var long []*model.Record
		long, err = lt.List(ctx, store.ListParams{Filters: q.Filters, Limit: limit})
		for _, r := range long {
			if !seen[r.ID] {
				seen[r.ID] = true
				recs = append(recs, r)
			}
		}
	}

	terms := keywords.Set(q.Text)
	if len(terms) == 0 {
		return recs, err
	}
	matched := recs[:0]
	for _, r := range recs {
		if keywords.Overlap(terms, keywords.Set(r.Content)) > 0 {
			matched = append(matched, r)
		}
	}
	return matched, err
}
