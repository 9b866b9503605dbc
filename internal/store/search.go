package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/model"
)

// filterClause renders f as SQL conditions.
func filterClause(f model.Filters) ([]string, []any) {
	var where []string
	var args []any
	if f.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.MinImportance > model.Trivial {
		where = append(where, "importance >= ?")
		args = append(args, int(f.MinImportance))
	}
	return where, args
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Search matches query keywords against content and tags. Each result's
// RelevanceScore is the fraction of keywords it contains. A query with no
// keywords returns filter matches ranked by importance then recency, scored
// by importance.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]*model.Record, error) {
	if p.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", model.ErrInvalidInput)
	}
	limit := p.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	where, args := filterClause(p.Filters)
	terms := uniq(keywords.Tokenize(p.Query))

	if len(terms) == 0 {
		args = append(args, limit)
		recs, err := s.query(ctx, selectColumns+whereSQL(where)+
			` ORDER BY importance DESC, created_at DESC, id ASC LIMIT ?`, args...)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			r.RelevanceScore = r.Importance.Score()
		}
		return recs, nil
	}

	// LIKE folds ASCII case only, so it can prefilter only when every term
	// is ASCII. Otherwise rows are matched below with Unicode folding.
	if asciiOnly(terms) {
		var match []string
		for _, t := range terms {
			match = append(match, "content LIKE ?", "tags LIKE ?")
			args = append(args, "%"+t+"%", "%"+t+"%")
		}
		where = append(where, "("+strings.Join(match, " OR ")+")")
	}
	rows, err := s.query(ctx, selectColumns+whereSQL(where), args...)
	if err != nil {
		return nil, err
	}

	recs := rows[:0]
	for _, r := range rows {
		hay := strings.ToLower(r.Content + " " + strings.Join(r.Tags, " "))
		hit := 0
		for _, t := range terms {
			if strings.Contains(hay, t) {
				hit++
			}
		}
		if hit == 0 {
			continue
		}
		r.RelevanceScore = float64(hit) / float64(len(terms))
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// List returns records matching the filters, newest first.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]*model.Record, error) {
	where, args := filterClause(p.Filters)
	if !p.Before.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, formatTime(p.Before))
	}
	q := selectColumns + whereSQL(where) + ` ORDER BY created_at DESC, id ASC`
	if p.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, p.Limit)
	}
	return s.query(ctx, q, args...)
}

func asciiOnly(terms []string) bool {
	for _, t := range terms {
		for i := 0; i < len(t); i++ {
			if t[i] >= utf8.RuneSelf {
				return false
			}
		}
	}
	return true
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
