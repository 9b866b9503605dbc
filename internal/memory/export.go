package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/store"
)

// Export returns every record of projectID from both tiers, oldest first. An
// empty projectID exports everything.
func (s *System) Export(ctx context.Context, projectID string) (*model.ExportDocument, error) {
	long, err := s.lt.List(ctx, store.ListParams{Filters: model.Filters{ProjectID: projectID}})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	seen := make(map[string]bool, len(long))
	recs := long
	for _, r := range long {
		seen[r.ID] = true
	}
	for _, r := range s.buf.Snapshot() {
		if seen[r.ID] || (projectID != "" && r.ProjectID != projectID) {
			continue
		}
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.Before(recs[j].Timestamp)
		}
		return recs[i].ID < recs[j].ID
	})

	byKind := map[string]int{}
	byImportance := map[string]int{}
	doc := &model.ExportDocument{
		ProjectID:       projectID,
		ExportTimestamp: s.now().UTC(),
		Memories:        make([]model.ExportedMemory, 0, len(recs)),
	}
	for _, r := range recs {
		byKind[string(r.Kind)]++
		byImportance[r.Importance.String()]++
		doc.Memories = append(doc.Memories, model.ToExported(r))
	}
	doc.MemoryStats = map[string]any{
		"total_memories": len(recs),
		"by_kind":        byKind,
		"by_importance":  byImportance,
	}
	s.log.Debug("exported", "project", projectID, "count", len(recs))
	return doc, nil
}

// Import writes exported memories straight to long-term storage under new
// ids. Content, agent, tags, importance, kind, context and timestamp are
// kept. It returns how many records were written before any failure.
func (s *System) Import(ctx context.Context, doc *model.ExportDocument) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("%w: nil export document", model.ErrInvalidInput)
	}
	n := 0
	for _, m := range doc.Memories {
		kind := m.Kind
		if kind == "" {
			kind = model.KindEpisodic
		}
		if !model.ValidKinds[kind] {
			return n, fmt.Errorf("%w: memory %s has unknown kind %q", model.ErrInvalidInput, m.ID, kind)
		}
		ts := m.Timestamp
		if ts.IsZero() {
			ts = s.now()
		}
		r := &model.Record{
			ID:         model.NewID(),
			Content:    m.Content,
			Kind:       kind,
			AgentID:    m.AgentID,
			ProjectID:  doc.ProjectID,
			Timestamp:  ts,
			Importance: m.Importance.Clamp(),
			Tags:       model.NormalizeTags(m.Tags),
			Context:    m.Context,
		}
		if err := s.lt.Add(ctx, r); err != nil {
			return n, fmt.Errorf("import %s: %w", m.ID, err)
		}
		n++
	}
	s.log.Info("imported", "project", doc.ProjectID, "count", n)
	return n, nil
}
