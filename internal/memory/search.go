package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/retrieval"
	"github.com/rcliao/agentmem/internal/store"
)

// DefaultSearchLimit applies when SearchParams.Limit is zero.
const DefaultSearchLimit = 10

// SearchParams holds parameters for a hybrid search. An empty Query returns
// the most relevant and recent records for the filters.
type SearchParams struct {
	Query         string
	AgentID       string
	ProjectID     string
	Kind          model.Kind
	MinImportance model.Importance
	Limit         int
	// ForAgent ranks results for this agent, favoring its own records and
	// handoffs addressed to it, without restricting authorship. It defaults
	// to AgentID.
	ForAgent string
	// LongTermOnly skips the short-term buffer.
	LongTermOnly bool
}

// Search runs the hybrid retriever. Only malformed parameters are errors;
// backend failures degrade to fewer results. Returned records carry the
// merged RelevanceScore and their AttentionWeight for the query.
func (s *System) Search(ctx context.Context, p SearchParams) ([]*model.Record, error) {
	recs, err := s.search(ctx, p)
	if err != nil {
		return nil, err
	}
	s.recordAccess(ctx, recs)
	return recs, nil
}

// search ranks without touching access statistics.
func (s *System) search(ctx context.Context, p SearchParams) ([]*model.Record, error) {
	if p.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", model.ErrInvalidInput, p.Limit)
	}
	if p.Limit == 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.Kind != "" {
		k, err := model.ParseKind(string(p.Kind))
		if err != nil {
			return nil, err
		}
		p.Kind = k
	}

	recs, err := s.ret.Retrieve(ctx, retrieval.Query{
		Text: p.Query,
		Filters: model.Filters{
			AgentID:       p.AgentID,
			ProjectID:     p.ProjectID,
			Kind:          p.Kind,
			MinImportance: p.MinImportance,
		},
		Agent:            p.ForAgent,
		Limit:            p.Limit,
		IncludeShortTerm: !p.LongTermOnly,
	})
	if err != nil {
		return nil, err
	}

	weights := s.orch.AttentionWeights(p.Query, recs)
	for i, r := range recs {
		r.AttentionWeight = weights[i]
	}
	return recs, nil
}

// recordAccess bumps access statistics in both tiers. It is skipped when the
// caller has gone away; losing a bump is harmless.
func (s *System) recordAccess(ctx context.Context, recs []*model.Record) {
	if len(recs) == 0 || ctx.Err() != nil {
		return
	}
	now := s.now()
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
		r.Touch(now)
	}
	s.buf.Touch(ids, now)
	if err := s.lt.RecordAccess(ctx, ids, now); err != nil {
		s.log.Warn("record access failed", "count", len(ids), "err", err)
	}
}

// recentLimit bounds AgentContext.Recent.
const recentLimit = 10

// relevantPool is how many ranked records GetAgentContext considers before
// keeping those addressed to the agent.
const relevantPool = 50

// addressedTo reports whether r was written by agent or handed off to it.
func addressedTo(r *model.Record, agent string) bool {
	if r.AgentID == agent {
		return true
	}
	return r.HasTag(model.TagHandoff) && r.ContextString(model.CtxToAgent) == agent
}

// Session describes the System instance serving an agent.
type Session struct {
	ID          string         `json:"id"`
	StartedAt   time.Time      `json:"started_at"`
	AgentStatus map[string]any `json:"agent_status,omitempty"`
}

// AgentContext is everything an agent needs to resume work.
type AgentContext struct {
	AgentID       string          `json:"agent_id"`
	ProjectID     string          `json:"project_id,omitempty"`
	Recent        []*model.Record `json:"recent"`
	WorkingMemory map[string]any  `json:"working_memory"`
	Relevant      []*model.Record `json:"relevant"`
	Session       Session         `json:"session"`
}

// GetAgentContext gathers the agent's recent records, live working memory and
// the records most relevant to it without a textual query.
func (s *System) GetAgentContext(ctx context.Context, agentID, projectID string) (*AgentContext, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", model.ErrInvalidInput)
	}
	out := &AgentContext{
		AgentID:       agentID,
		ProjectID:     projectID,
		WorkingMemory: s.buf.Working(),
		Session:       Session{ID: s.session, StartedAt: s.startedAt},
	}

	seen := map[string]bool{}
	for _, r := range s.buf.Recent(agentID, 0) {
		if projectID != "" && r.ProjectID != projectID {
			continue
		}
		seen[r.ID] = true
		out.Recent = append(out.Recent, r)
		if len(out.Recent) == recentLimit {
			break
		}
	}
	if len(out.Recent) < recentLimit {
		long, err := s.lt.List(ctx, store.ListParams{
			Filters: model.Filters{AgentID: agentID, ProjectID: projectID},
			Limit:   recentLimit,
		})
		if err != nil {
			s.log.Warn("long-term recent failed", "agent", agentID, "err", err)
		}
		for _, r := range long {
			if len(out.Recent) == recentLimit {
				break
			}
			if !seen[r.ID] {
				seen[r.ID] = true
				out.Recent = append(out.Recent, r)
			}
		}
	}

	// Authorship is not filtered so handoffs from other agents compete.
	relevant, err := s.search(ctx, SearchParams{
		ForAgent:  agentID,
		ProjectID: projectID,
		Limit:     relevantPool,
	})
	if err != nil {
		return nil, err
	}
	for _, r := range relevant {
		if !addressedTo(r, agentID) {
			continue
		}
		out.Relevant = append(out.Relevant, r)
		if len(out.Relevant) == DefaultSearchLimit {
			break
		}
	}
	s.recordAccess(ctx, out.Relevant)

	if s.project != nil && projectID != "" {
		status, err := s.project.AgentStatus(ctx, projectID, agentID)
		if err != nil {
			s.log.Warn("project state unavailable", "project", projectID, "agent", agentID, "err", err)
		} else {
			out.Session.AgentStatus = status
		}
	}
	return out, nil
}

// RecordHandoff records work passing from one agent to another. The record
// is tagged "handoff" and is at least High importance.
func (s *System) RecordHandoff(ctx context.Context, from, to, projectID string, data map[string]any) (string, error) {
	if from == "" || to == "" {
		return "", fmt.Errorf("%w: handoff needs both agents", model.ErrInvalidInput)
	}
	content := fmt.Sprintf("Handoff from %s to %s", from, to)
	if summary, ok := data["summary"].(string); ok && summary != "" {
		content += ": " + summary
	}
	rctx := map[string]any{
		model.CtxType:         model.TypeAgentHandoff,
		model.CtxFromAgent:    from,
		model.CtxToAgent:      to,
		model.CtxAgentHandoff: true,
	}
	if len(data) > 0 {
		rctx[model.CtxHandoffData] = data
	}
	imp := s.scorer.Score(content, rctx).AtLeast(model.High)
	return s.Add(ctx, AddParams{
		Content:    content,
		AgentID:    from,
		ProjectID:  projectID,
		Context:    rctx,
		Tags:       []string{model.TagHandoff},
		Kind:       model.KindEpisodic,
		Importance: &imp,
	})
}
